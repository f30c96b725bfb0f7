package mongosafe

import "go.mongodb.org/mongo-driver/bson"

// BuildSet returns {"$set": fields}.
func BuildSet(fields bson.M) bson.D {
	return bson.D{{Key: "$set", Value: fields}}
}

// BuildInc returns {"$inc": fields}.
func BuildInc(fields bson.M) bson.D {
	return bson.D{{Key: "$inc", Value: fields}}
}

// BuildPush returns {"$push": {field: value}}.
func BuildPush(field string, value any) bson.D {
	return bson.D{{Key: "$push", Value: bson.M{field: value}}}
}

// Combine concatenates builder outputs into one update document, keeping
// their order. Repeated operators are not merged.
func Combine(docs ...bson.D) bson.D {
	var out bson.D
	for _, d := range docs {
		out = append(out, d...)
	}
	return out
}
