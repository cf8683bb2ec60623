package loader

// Diagnostic event IDs produced by the loader.
const (
	ErrParseError              = "PARSE_ERROR"
	ErrShapeConflict           = "SHAPE_CONFLICT"
	ErrUnknownShapeTarget      = "UNKNOWN_SHAPE_TARGET"
	ErrMixinCycle              = "MIXIN_CYCLE"
	ErrMixinTargetConflict     = "MIXIN_TARGET_CONFLICT"
	ErrTraitConstructionFailed = "TRAIT_CONSTRUCTION_FAILED"
	ErrUnknownTrait            = "UNKNOWN_TRAIT"
	ErrDuplicateMember         = "DUPLICATE_MEMBER"
	ErrVersionMismatch         = "VERSION_MISMATCH"
)
