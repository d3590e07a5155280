package semantic

// readAttr returns the attribute's memo at the context revision, running
// the three-color validation protocol:
//
//  1. verified at the current revision -> return the memo;
//  2. no cache -> compute and install;
//  3. clean cache -> revalidate the dep set, short-circuiting when every
//     dep is verified and unchanged;
//  4. dirty or changed deps -> recompute, advancing updatedAt only when
//     the memo actually changed.
func (a *Analyzer) readAttr(ref AttrRef, ctx *AttrContext) (any, error) {
	if ctx.deps != nil {
		ctx.deps[ref] = struct{}{}
	}

	for {
		if err := ctx.Proceed(); err != nil {
			return nil, err
		}
		rec, ok := a.getRecord(ref)
		if !ok {
			return nil, ErrMissingAttribute
		}
		if rec.function == nil {
			return nil, ErrUninitAttribute
		}
		rev := ctx.revision

		rec.mu.RLock()
		if rec.verifiedAt == rev && rec.cache != nil {
			memo := rec.cache.memo
			rec.mu.RUnlock()
			return memo, nil
		}
		rec.mu.RUnlock()

		rec.mu.Lock()
		if rec.verifiedAt == rev && rec.cache != nil {
			memo := rec.cache.memo
			rec.mu.Unlock()
			return memo, nil
		}

		if rec.cache == nil {
			memo, cache, err := a.compute(rec, ref, ctx)
			if err != nil {
				rec.mu.Unlock()
				return nil, err
			}
			cache.updatedAt = rev
			rec.cache = cache
			rec.verifiedAt = rev
			rec.mu.Unlock()
			return memo, nil
		}

		if !rec.cache.dirty {
			valid := true
			recurse := NilAttrRef()
			for dep := range rec.cache.deps {
				if err := ctx.Proceed(); err != nil {
					rec.mu.Unlock()
					return nil, err
				}
				depRec, ok := a.getRecord(dep)
				if !ok {
					valid = false
					break
				}
				depRec.mu.RLock()
				switch {
				case depRec.cache == nil, depRec.cache.dirty:
					valid = false
				case depRec.cache.updatedAt > rec.verifiedAt:
					valid = false
				case depRec.verifiedAt != rev:
					recurse = dep
				}
				depRec.mu.RUnlock()
				if !valid || !recurse.IsNil() {
					break
				}
			}
			if valid && !recurse.IsNil() {
				// Validate the dep without holding this record's lock,
				// then restart from the top.
				rec.mu.Unlock()
				if _, err := a.readAttr(recurse, ctx.sansDeps()); err != nil {
					return nil, err
				}
				continue
			}
			if valid {
				// Early-exit short-circuit: every dep is clean and
				// unchanged since the last verification.
				rec.verifiedAt = rev
				memo := rec.cache.memo
				rec.mu.Unlock()
				return memo, nil
			}
		}

		memo, cache, err := a.compute(rec, ref, ctx)
		if err != nil {
			rec.mu.Unlock()
			return nil, err
		}
		if memoEq(rec.cache.memo, memo) {
			cache.updatedAt = rec.cache.updatedAt
		} else {
			cache.updatedAt = rev
		}
		rec.cache = cache
		rec.verifiedAt = rev
		rec.mu.Unlock()
		return memo, nil
	}
}

// compute invokes the record's function in a fresh dep-collecting context.
// The record's write lock is held by the caller for the whole invocation;
// no partial state is installed on failure.
func (a *Analyzer) compute(rec *record, ref AttrRef, parent *AttrContext) (any, *attrCache, error) {
	ctx := parent.fork(ref, rec.node)
	if err := ctx.Proceed(); err != nil {
		return nil, nil, err
	}
	memo, err := rec.function(ctx)
	if err != nil {
		return nil, nil, err
	}
	if ctx.volatile {
		a.markVolatile(ref)
	}
	return memo, &attrCache{memo: memo, deps: ctx.deps}, nil
}
