package store

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/high-horse/fingerprint-server/internal/template"
)

const (
	groupsKey        = "gallery:groups"
	groupKeyPrefix   = "gallery:group:"
	verdictKeyPrefix = "verdicts:"
)

// RedisClient is the subset of *redis.Client the store uses.
type RedisClient interface {
	Ping(ctx context.Context) *redis.StatusCmd
	SAdd(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	HGetAll(ctx context.Context, key string) *redis.StringStringMapCmd
}

// Redis keeps the gallery in a set of group ids plus one hash per group
// mapping image id to the CBOR encoded landmark set. Verdicts live in one hash
// per probe image keyed by group id.
type Redis struct {
	client RedisClient
}

func NewRedis(client RedisClient) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Enroll(ctx context.Context, set *template.LandmarkSet) error {
	if err := checkEnroll(set); err != nil {
		return err
	}
	data, err := template.Marshal(set)
	if err != nil {
		return err
	}
	if err := r.client.HSet(ctx, groupKeyPrefix+set.GroupID, set.ImageID, data).Err(); err != nil {
		return fmt.Errorf("redis enroll %s: %w", set.ImageID, err)
	}
	if err := r.client.SAdd(ctx, groupsKey, set.GroupID).Err(); err != nil {
		return fmt.Errorf("redis enroll group %s: %w", set.GroupID, err)
	}
	return nil
}

func (r *Redis) Groups(ctx context.Context) ([]string, error) {
	groups, err := r.client.SMembers(ctx, groupsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis groups: %w", err)
	}
	slices.Sort(groups)
	return groups, nil
}

func (r *Redis) Members(ctx context.Context, group string) ([]*template.LandmarkSet, error) {
	raw, err := r.client.HGetAll(ctx, groupKeyPrefix+group).Result()
	if err != nil {
		return nil, fmt.Errorf("redis members %s: %w", group, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: group %s", ErrNotFound, group)
	}
	ids := maps.Keys(raw)
	slices.Sort(ids)
	out := make([]*template.LandmarkSet, 0, len(ids))
	for _, id := range ids {
		set, err := template.Unmarshal([]byte(raw[id]))
		if err != nil {
			return nil, fmt.Errorf("group %s image %s: %w", group, id, err)
		}
		out = append(out, set)
	}
	return out, nil
}

func (r *Redis) PutVerdict(ctx context.Context, v Verdict) error {
	data, err := template.MarshalValue(v)
	if err != nil {
		return fmt.Errorf("encoding verdict %s/%s: %w", v.ImageID, v.GroupID, err)
	}
	if err := r.client.HSet(ctx, verdictKeyPrefix+v.ImageID, v.GroupID, data).Err(); err != nil {
		return fmt.Errorf("redis verdict %s/%s: %w", v.ImageID, v.GroupID, err)
	}
	return nil
}

func (r *Redis) Verdicts(ctx context.Context, imageID string) ([]Verdict, error) {
	raw, err := r.client.HGetAll(ctx, verdictKeyPrefix+imageID).Result()
	if err != nil {
		return nil, fmt.Errorf("redis verdicts %s: %w", imageID, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: verdicts for %s", ErrNotFound, imageID)
	}
	groups := maps.Keys(raw)
	slices.Sort(groups)
	out := make([]Verdict, 0, len(groups))
	for _, g := range groups {
		var v Verdict
		if err := template.UnmarshalValue([]byte(raw[g]), &v); err != nil {
			return nil, fmt.Errorf("verdict %s/%s: %w", imageID, g, err)
		}
		out = append(out, v)
	}
	return out, nil
}
