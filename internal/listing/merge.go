package listing

import "time"

// NewRecord stamps a first-seen record
func NewRecord(incoming Record, now time.Time) Record {
	out := incoming.Clone()
	out.Normalize()
	out.CreatedAt = now
	out.UpdatedAt = now
	return out
}

// Merge overlays every non-empty field of incoming onto existing.
// Fields absent from incoming keep their stored value; CreatedAt never moves.
func Merge(existing, incoming Record, now time.Time) Record {
	in := incoming.Clone()
	in.Normalize()

	out := existing.Clone()
	if in.ListingID != "" {
		out.ListingID = in.ListingID
	}
	if in.Site != "" {
		out.Site = in.Site
	}
	if in.PageKind != "" {
		out.PageKind = in.PageKind
	}
	if in.Title != "" {
		out.Title = in.Title
	}
	for k, v := range in.Attributes {
		out.Set(k, v)
	}
	if len(in.PaintedParts) > 0 {
		out.PaintedParts = in.PaintedParts
	}
	if len(in.ChangedParts) > 0 {
		out.ChangedParts = in.ChangedParts
	}
	if in.SourceURL != "" {
		out.SourceURL = in.SourceURL
	}
	if in.Raw != "" {
		out.Raw = in.Raw
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = now
	}
	out.UpdatedAt = now
	return out
}
