package logger

// Standard field names.
const (
	FieldService    = "service"
	FieldComponent  = "component"
	FieldEvent      = "event"
	FieldPair       = "pair"
	FieldItem       = "item"
	FieldState      = "state"
	FieldBuffered   = "buffered"
	FieldGeneration = "generation"
	FieldSession    = "session"
)
