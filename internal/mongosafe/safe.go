package mongosafe

import (
	"context"
	"regexp"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

const (
	opUpdateOne        = "SafeUpdateOne"
	opUpdateMany       = "SafeUpdateMany"
	opFindOneAndUpdate = "SafeFindOneAndUpdate"
)

// operatorErrPattern matches the messages drivers and servers produce when an
// update document lacks operators.
var operatorErrPattern = regexp.MustCompile(`(?i)(update only works with \$ operators|must contain key beginning with '\$'|requires atomic operators|unknown modifier)`)

type callOptions struct {
	upsert bool
	mode   ReturnMode
	logger *zap.Logger
}

// Option configures a single wrapper call.
type Option func(*callOptions)

// WithUpsert enables insert-if-absent semantics.
func WithUpsert(upsert bool) Option {
	return func(o *callOptions) { o.upsert = upsert }
}

// WithReturnDocument selects the document version returned by
// SafeFindOneAndUpdate. It is ignored by the other wrappers.
func WithReturnDocument(mode ReturnMode) Option {
	return func(o *callOptions) { o.mode = mode }
}

// WithLogger overrides the logger, which defaults to zap.L().Named("mongosafe").
func WithLogger(l *zap.Logger) Option {
	return func(o *callOptions) { o.logger = l }
}

func newCallOptions(opts []Option) callOptions {
	o := callOptions{mode: ReturnBefore}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.L().Named("mongosafe")
	}
	return o
}

// SafeUpdateOne validates update and delegates to coll.UpdateOne.
func SafeUpdateOne(ctx context.Context, coll Collection, filter, update any, opts ...Option) (*UpdateResult, error) {
	o := newCallOptions(opts)
	log, err := prepare(opUpdateOne, filter, update, o)
	if err != nil {
		return nil, err
	}

	res, err := coll.UpdateOne(ctx, filter, update, o.upsert)
	if err != nil {
		return nil, translate(opUpdateOne, update, err)
	}
	logResult(log, res)
	return res, nil
}

// SafeUpdateMany validates update and delegates to coll.UpdateMany.
func SafeUpdateMany(ctx context.Context, coll Collection, filter, update any, opts ...Option) (*UpdateResult, error) {
	o := newCallOptions(opts)
	log, err := prepare(opUpdateMany, filter, update, o)
	if err != nil {
		return nil, err
	}

	res, err := coll.UpdateMany(ctx, filter, update, o.upsert)
	if err != nil {
		return nil, translate(opUpdateMany, update, err)
	}
	logResult(log, res)
	return res, nil
}

// SafeFindOneAndUpdate validates update and delegates to
// coll.FindOneAndUpdate. A nil document with a nil error means no match.
func SafeFindOneAndUpdate(ctx context.Context, coll Collection, filter, update any, opts ...Option) (bson.M, error) {
	o := newCallOptions(opts)
	log, err := prepare(opFindOneAndUpdate, filter, update, o)
	if err != nil {
		return nil, err
	}

	doc, err := coll.FindOneAndUpdate(ctx, filter, update, o.upsert, o.mode)
	if err != nil {
		return nil, translate(opFindOneAndUpdate, update, err)
	}
	log.Debug("update applied", zap.Bool("found", doc != nil))
	return doc, nil
}

// prepare validates the update document and logs the dispatch. The returned
// logger carries the call's fields for the result entry.
func prepare(op string, filter, update any, o callOptions) (*zap.Logger, error) {
	if err := Validate(update); err != nil {
		if ve, ok := err.(*ValidationError); ok {
			ve.Op = op
		}
		return nil, err
	}

	log := o.logger.With(
		zap.String("op", op),
		zap.String("op_id", uuid.NewString()),
	)
	fields := []zap.Field{
		zap.Strings("filter_keys", topLevelKeys(filter)),
		zap.Strings("update_operators", topLevelKeys(update)),
		zap.Bool("upsert", o.upsert),
	}
	if op == opFindOneAndUpdate {
		fields = append(fields, zap.Stringer("return", o.mode))
	}
	log.Debug("dispatching update", fields...)
	return log, nil
}

func logResult(log *zap.Logger, res *UpdateResult) {
	if res == nil {
		log.Debug("update applied")
		return
	}
	log.Debug("update applied",
		zap.Int64("matched", res.MatchedCount),
		zap.Int64("modified", res.ModifiedCount),
		zap.Int64("upserted", res.UpsertedCount),
	)
}

// translate converts driver operator errors into *ValidationError and
// returns every other error unchanged.
func translate(op string, update any, err error) error {
	if !operatorErrPattern.MatchString(err.Error()) {
		return err
	}
	return &ValidationError{
		Op:         op,
		Document:   update,
		Reason:     "driver rejected update document " + renderDocument(update) + " because it lacks update operators",
		Keys:       nonOperatorKeys(update),
		Suggestion: suggestion(update),
		Cause:      err,
	}
}

func nonOperatorKeys(update any) []string {
	var keys []string
	for _, k := range topLevelKeys(update) {
		if !IsKnown(k) {
			keys = append(keys, k)
		}
	}
	return keys
}

func suggestion(update any) string {
	pairs, ok := topLevel(update)
	if !ok || len(pairs) == 0 {
		return emptySuggestion
	}
	var fields bson.D
	for _, p := range pairs {
		if !IsKnown(p.Key) {
			fields = append(fields, p)
		}
	}
	if len(fields) == 0 {
		return ""
	}
	return renderDocument(bson.D{{Key: "$set", Value: fields}})
}
