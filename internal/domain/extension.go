package domain

// Extension is the domain-specific attribute set attached 1:1 to a Work.
// Each domain implements it once, replacing switch-on-domain dispatch:
// the resolver asks an extension for its merge key, and the attribute
// upserter assigns coerced values through the typed setter table behind
// Assign. No reflection is involved.
type Extension interface {
	// ExtDomain names the variant.
	ExtDomain() Domain
	// WorkRef / SetWorkRef tie the extension to its owning Work (shared id).
	WorkRef() string
	SetWorkRef(id string)
	// MergeKeyColumn is the storage column of the strong identity attribute
	// ("developer" for games, "author" for webtoon/webnovel). Empty means
	// the domain never attempts a merge.
	MergeKeyColumn() string
	// MergeKey is the current value of that attribute, empty when unset.
	MergeKey() string
	// Assign sets one named field to an already-coerced value. Unknown
	// fields and incompatible values return an error; the caller logs and
	// moves on.
	Assign(field string, value any) error
	// FillFrom copies fields from another extension of the same variant,
	// only where the receiver's field is still unset.
	FillFrom(other Extension)
}
