package mongosafe

// operators are the top-level update operators understood by the server.
var operators = []string{
	"$set",
	"$inc",
	"$push",
	"$addToSet",
	"$pull",
	"$unset",
	"$setOnInsert",
	"$min",
	"$max",
	"$mul",
	"$pop",
	"$pullAll",
	"$pushAll",
	"$rename",
	"$bit",
	"$currentDate",
}

// modifiers qualify an operator's payload, e.g. {"$push": {"tags": {"$each": [...]}}}.
var modifiers = []string{
	"$each",
	"$position",
	"$slice",
	"$sort",
}

var catalog = func() map[string]struct{} {
	m := make(map[string]struct{}, len(operators)+len(modifiers))
	for _, op := range operators {
		m[op] = struct{}{}
	}
	for _, mod := range modifiers {
		m[mod] = struct{}{}
	}
	return m
}()

// Operators returns the recognized update operators in catalog order.
func Operators() []string {
	return append([]string(nil), operators...)
}

// Modifiers returns the recognized operator modifiers.
func Modifiers() []string {
	return append([]string(nil), modifiers...)
}

// IsKnown reports whether key is an operator or modifier from the catalog.
func IsKnown(key string) bool {
	_, ok := catalog[key]
	return ok
}
