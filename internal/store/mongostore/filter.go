package mongostore

import (
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/imagevault/imagevault-server/internal/domain"
)

// imageSort mirrors domain.CompareImages.
var imageSort = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}

var tagSort = bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}

// ImageFilter translates a query into a MongoDB filter document:
//
//	{"tags": {"$all": [...]}, "$or": [{"title": /re/i}, {"description": /re/i}]}
//
// Either clause is omitted when its part of the query is empty.
func ImageFilter(q domain.ImageQuery) bson.M {
	filter := bson.M{}
	if len(q.Tags) > 0 {
		filter["tags"] = bson.M{"$all": q.Tags}
	}
	if pattern := q.SearchPattern(); pattern != "" {
		re := bson.Regex{Pattern: pattern, Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"title": re},
			bson.M{"description": re},
		}
	}
	return filter
}
