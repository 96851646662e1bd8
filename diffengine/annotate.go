package diffengine

import "github.com/weavedoc/weave/annotation"

// ModificationIndices reports which slot(s) of an annotation vector a
// single Modification's application touched, so a caller working with
// TimelineAnnotations (component E) can populate node/model/metadata
// fields on exactly the right slots without re-deriving them.
type ModificationIndices struct {
	InsertedBytes       *int
	InsertedTokensStart  *int
	InsertedTokensEnd    *int
	LeftSplit            *int
	RightSplit           *int
}

// ApplyAnnotations threads every modification in d through annotations in
// order, returning the final annotation vector and, parallel to
// d.Modifications, the ModificationIndices each one produced. annotations
// must be sorted, contiguous, and cover the full pre-image byte range —
// violating this is a programmer error and panics, per spec §7.
func ApplyAnnotations[T annotation.Annotation[T]](d Diff, annotations []T) ([]T, []ModificationIndices) {
	next := 0
	for _, a := range annotations {
		r := a.Range()
		if r.Start != next || r.End < r.Start {
			panic("diffengine: annotations must be sorted, contiguous, and start at 0")
		}
		next = r.End
	}
	result := annotations
	indices := make([]ModificationIndices, 0, len(d.Modifications))
	for _, m := range d.Modifications {
		var idx ModificationIndices
		result, idx = applyAnnotationsOne(m, result)
		indices = append(indices, idx)
	}
	return result, indices
}

func applyAnnotationsOne[T annotation.Annotation[T]](m Modification, anns []T) ([]T, ModificationIndices) {
	if m.Content.Kind == OpDeletion {
		return applyDeletionAnnotations(m, anns)
	}
	return applyInsertionAnnotations(m, anns)
}

func numFresh(m Modification) int {
	if m.Content.Kind == OpTokenInsertion {
		return len(m.Content.Tokens)
	}
	return 1
}

// freshAnnotations builds the zero-metadata annotation(s) that represent
// newly inserted content: one spanning the whole insertion for
// Insertion, or one per token for TokenInsertion.
func freshAnnotations[T annotation.Annotation[T]](m Modification, start int) []T {
	var zero T
	if m.Content.Kind == OpTokenInsertion {
		out := make([]T, 0, len(m.Content.Tokens))
		cursor := start
		for _, tok := range m.Content.Tokens {
			r := annotation.Range{Start: cursor, End: cursor + tok.Len()}
			out = append(out, zero.WithRange(r))
			cursor += tok.Len()
		}
		return out
	}
	r := annotation.Range{Start: start, End: start + m.Content.Len()}
	return []T{zero.WithRange(r)}
}

func shiftAnnotation[T annotation.Annotation[T]](a T, delta int) T {
	r := a.Range()
	return a.WithRange(annotation.Range{Start: r.Start + delta, End: r.End + delta})
}

func setInsertedIndices(idx *ModificationIndices, m Modification, pos int) {
	if m.Content.Kind == OpTokenInsertion {
		s := pos
		e := pos + len(m.Content.Tokens) - 1
		idx.InsertedTokensStart = &s
		idx.InsertedTokensEnd = &e
		return
	}
	p := pos
	idx.InsertedBytes = &p
}

// applyInsertionAnnotations handles both Insertion and TokenInsertion: it
// locates where the new span(s) belong among the existing annotations,
// splitting one annotation in two if the insertion point falls strictly
// inside it, and shifts every annotation after the insertion by the
// inserted length.
func applyInsertionAnnotations[T annotation.Annotation[T]](m Modification, anns []T) ([]T, ModificationIndices) {
	var idx ModificationIndices
	offset := m.Content.Len()
	if offset == 0 {
		return anns, idx
	}
	start := m.Index
	fresh := freshAnnotations[T](m, start)

	out := make([]T, 0, len(anns)+len(fresh))
	inserted := false
	for _, a := range anns {
		ar := a.Range()
		switch {
		case !inserted && start == ar.Start:
			setInsertedIndices(&idx, m, len(out))
			out = append(out, fresh...)
			out = append(out, a)
			inserted = true
		case !inserted && start > ar.Start && start < ar.End:
			left, right, ok := annotation.Split[T](a, start-ar.Start)
			if !ok {
				panic("diffengine: annotation split failed during insertion")
			}
			li := len(out)
			out = append(out, left)
			setInsertedIndices(&idx, m, len(out))
			out = append(out, fresh...)
			ri := len(out)
			out = append(out, shiftAnnotation(right, offset))
			idx.LeftSplit = &li
			riCopy := ri
			idx.RightSplit = &riCopy
			inserted = true
		case inserted:
			out = append(out, shiftAnnotation(a, offset))
		default:
			out = append(out, a)
		}
	}
	if !inserted {
		setInsertedIndices(&idx, m, len(out))
		out = append(out, fresh...)
	}
	return out, idx
}

// applyDeletionAnnotations removes or clips every annotation overlapping
// the deleted range and shifts everything after it left by the deleted
// length. At most one annotation straddles the whole deleted range and
// is split into a left remainder and a right remainder; annotations that
// straddle only one boundary are clipped instead.
func applyDeletionAnnotations[T annotation.Annotation[T]](m Modification, anns []T) ([]T, ModificationIndices) {
	var idx ModificationIndices
	offset := m.Content.Len()
	if offset == 0 {
		return anns, idx
	}
	rangeStart := m.Index
	rangeEnd := m.Index + offset

	out := make([]T, 0, len(anns))
	splitDone := false
	for _, a := range anns {
		ar := a.Range()
		switch {
		case ar.End <= rangeStart:
			out = append(out, a)
		case ar.Start >= rangeEnd:
			out = append(out, shiftAnnotation(a, -offset))
		case ar.Start >= rangeStart && ar.End <= rangeEnd:
			// fully contained: drop.
		case !splitDone && ar.Start < rangeStart && ar.End > rangeEnd:
			left, right, ok := annotation.Split[T](a, rangeStart-ar.Start)
			if !ok {
				panic("diffengine: annotation split failed during deletion")
			}
			right = right.WithRange(annotation.Range{Start: rangeStart, End: ar.End - offset})
			li := len(out)
			out = append(out, left, right)
			ri := len(out) - 1
			idx.LeftSplit = &li
			idx.RightSplit = &ri
			splitDone = true
		case ar.Start >= rangeStart && ar.Start < rangeEnd:
			clipped := a.WithRange(annotation.Range{Start: rangeStart, End: ar.End - offset})
			ri := len(out)
			out = append(out, clipped)
			idx.RightSplit = &ri
		case ar.Start < rangeStart && ar.End > rangeStart && ar.End <= rangeEnd:
			clipped := a.WithRange(annotation.Range{Start: ar.Start, End: rangeStart})
			li := len(out)
			out = append(out, clipped)
			idx.LeftSplit = &li
		default:
			out = append(out, a)
		}
	}
	return out, idx
}
