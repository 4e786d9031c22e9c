package rtabi

// Runtime helper labels. Helpers are leaf routines called with BL and
// return their result in r0.
const (
	FnSdiv = "sdiv"
	FnPow  = "pow"
	FnAbs  = "abs"
	FnInt  = "int"
	FnSqr  = "sqr"
)

// FnUserPrefix prefixes the label of a DEF FN function.
const FnUserPrefix = "FN"
