package mongosafe

import "context"

func apply(ctx context.Context, coll collection, filter, update any) error {
	_, err := coll.UpdateOne(ctx, filter, update)
	return err
}
