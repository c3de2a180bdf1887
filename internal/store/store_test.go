package store

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/high-horse/fingerprint-server/internal/decision"
	"github.com/high-horse/fingerprint-server/internal/minutiae"
	"github.com/high-horse/fingerprint-server/internal/template"
)

// stubRedis keeps sets and hashes in maps and answers with go-redis result
// values, so the Redis store runs without a server.
type stubRedis struct {
	sets   map[string]map[string]bool
	hashes map[string]map[string]string
	err    error
}

func newStubRedis() *stubRedis {
	return &stubRedis{sets: map[string]map[string]bool{}, hashes: map[string]map[string]string{}}
}

func (s *stubRedis) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", s.err)
}

func (s *stubRedis) SAdd(_ context.Context, key string, members ...interface{}) *redis.IntCmd {
	if s.err != nil {
		return redis.NewIntResult(0, s.err)
	}
	if s.sets[key] == nil {
		s.sets[key] = map[string]bool{}
	}
	var added int64
	for _, m := range members {
		if !s.sets[key][m.(string)] {
			s.sets[key][m.(string)] = true
			added++
		}
	}
	return redis.NewIntResult(added, nil)
}

func (s *stubRedis) SMembers(_ context.Context, key string) *redis.StringSliceCmd {
	var out []string
	for m := range s.sets[key] {
		out = append(out, m)
	}
	return redis.NewStringSliceResult(out, s.err)
}

func (s *stubRedis) HSet(_ context.Context, key string, values ...interface{}) *redis.IntCmd {
	if s.err != nil {
		return redis.NewIntResult(0, s.err)
	}
	if s.hashes[key] == nil {
		s.hashes[key] = map[string]string{}
	}
	for i := 0; i+1 < len(values); i += 2 {
		s.hashes[key][values[i].(string)] = string(values[i+1].([]byte))
	}
	return redis.NewIntResult(int64(len(values)/2), nil)
}

func (s *stubRedis) HGetAll(_ context.Context, key string) *redis.StringStringMapCmd {
	out := map[string]string{}
	for k, v := range s.hashes[key] {
		out[k] = v
	}
	return redis.NewStringStringMapResult(out, s.err)
}

func set(group, image string, x int) *template.LandmarkSet {
	s := template.New(image, []minutiae.Minutia{
		{X: x, Y: 10, Kind: minutiae.Termination, Theta: 0.5},
		{X: x + 20, Y: 30, Kind: minutiae.Bifurcation, Theta: -1},
	})
	s.GroupID = group
	return s
}

func backends() map[string]func() Store {
	return map[string]func() Store{
		"memory": func() Store { return NewMemory() },
		"redis":  func() Store { return NewRedis(newStubRedis()) },
	}
}

func TestGallery(t *testing.T) {
	ctx := context.Background()
	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			st := open()
			require.NoError(t, st.Enroll(ctx, set("102", "102_2.tif", 5)))
			require.NoError(t, st.Enroll(ctx, set("101", "101_2.tif", 7)))
			require.NoError(t, st.Enroll(ctx, set("101", "101_1.tif", 9)))

			groups, err := st.Groups(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"101", "102"}, groups)

			members, err := st.Members(ctx, "101")
			require.NoError(t, err)
			require.Len(t, members, 2)
			assert.Equal(t, "101_1.tif", members[0].ImageID)
			assert.Equal(t, set("101", "101_1.tif", 9), members[0])
			assert.Equal(t, "101_2.tif", members[1].ImageID)

			_, err = st.Members(ctx, "999")
			assert.ErrorIs(t, err, ErrNotFound)

			assert.ErrorIs(t, st.Enroll(ctx, set("", "x", 1)), ErrNoGroup)
		})
	}
}

func TestEnrollReplacesImage(t *testing.T) {
	ctx := context.Background()
	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			st := open()
			require.NoError(t, st.Enroll(ctx, set("101", "101_1.tif", 9)))
			require.NoError(t, st.Enroll(ctx, set("101", "101_1.tif", 40)))
			members, err := st.Members(ctx, "101")
			require.NoError(t, err)
			require.Len(t, members, 1)
			assert.Equal(t, 40, members[0].Minutiae[0].X)
		})
	}
}

func TestVerdicts(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			st := open()
			_, err := st.Verdicts(ctx, "probe.tif")
			assert.ErrorIs(t, err, ErrNotFound)

			for _, g := range []string{"102", "101"} {
				require.NoError(t, st.PutVerdict(ctx, Verdict{
					ImageID:  "probe.tif",
					GroupID:  g,
					Score:    decision.GroupScore{NormalizedPos: 26.67, NormalizedMea: 12.22, Verdict: g == "101"},
					Compared: 3,
					RunID:    "run-" + g,
					At:       at,
				}))
			}
			got, err := st.Verdicts(ctx, "probe.tif")
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, "101", got[0].GroupID)
			assert.True(t, got[0].Score.Verdict)
			assert.False(t, got[1].Score.Verdict)
			assert.Equal(t, 3, got[1].Compared)
			assert.True(t, at.Equal(got[0].At))
		})
	}
}

func TestRedisPropagatesErrors(t *testing.T) {
	client := newStubRedis()
	client.err = redis.ErrClosed
	st := NewRedis(client)
	ctx := context.Background()

	assert.ErrorIs(t, st.Ping(ctx), redis.ErrClosed)
	assert.ErrorIs(t, st.Enroll(ctx, set("101", "101_1.tif", 1)), redis.ErrClosed)
	_, err := st.Groups(ctx)
	assert.ErrorIs(t, err, redis.ErrClosed)
	_, err = st.Members(ctx, "101")
	assert.ErrorIs(t, err, redis.ErrClosed)
	assert.ErrorIs(t, st.PutVerdict(ctx, Verdict{ImageID: "a", GroupID: "b"}), redis.ErrClosed)
}

func TestRedisRejectsCorruptPayload(t *testing.T) {
	client := newStubRedis()
	client.hashes[groupKeyPrefix+"101"] = map[string]string{"101_1.tif": "\xff\x00"}
	_, err := NewRedis(client).Members(context.Background(), "101")
	assert.Error(t, err)
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()
	original := set("101", "101_1.tif", 9)
	require.NoError(t, st.Enroll(ctx, original))
	original.Minutiae[0].X = 500

	members, err := st.Members(ctx, "101")
	require.NoError(t, err)
	members[0].Minutiae[0].X = 600

	again, err := st.Members(ctx, "101")
	require.NoError(t, err)
	assert.Equal(t, 9, again[0].Minutiae[0].X)
}
