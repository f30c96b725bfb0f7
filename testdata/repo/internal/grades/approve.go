package grades

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	ms "github.com/GarciaKevinFab/SISTEMA-ACADEMICO-sub002/internal/mongosafe"
)

func Approve(ctx context.Context, coll ms.Collection, id string) error {
	_, err := ms.SafeUpdateOne(ctx, coll, bson.M{"_id": id}, ms.BuildSet(bson.M{"status": "APPROVED"}))
	return err
}
