package generator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/gemini-scene-kit/pkg/domain"
)

func TestReferenceSetBuilder_Build(t *testing.T) {
	ctx := context.Background()

	t.Run("正面が確定してから残り3視点が条件付きで生成される", func(t *testing.T) {
		frontImg := &domain.ViewImage{Data: []byte("front"), MimeType: "image/png"}

		var mu sync.Mutex
		var order []domain.View
		refs := make(map[domain.View]*domain.ViewImage)

		source := &mockViewSource{
			generateFunc: func(_ context.Context, req domain.ViewRequest) (*domain.ViewImage, error) {
				mu.Lock()
				order = append(order, req.View)
				refs[req.View] = req.Reference
				mu.Unlock()

				if req.View == domain.ViewFront {
					return frontImg, nil
				}
				return &domain.ViewImage{Data: []byte(req.View), MimeType: "image/png"}, nil
			},
		}

		builder, err := NewReferenceSetBuilder(source)
		require.NoError(t, err)

		set, err := builder.Build(ctx, BuildRequest{Subject: "赤い灯台"})
		require.NoError(t, err)

		require.Len(t, order, 4)
		assert.Equal(t, domain.ViewFront, order[0], "front view must be generated first")

		assert.Nil(t, refs[domain.ViewFront], "front view must be unconditioned")
		for _, v := range domain.ConditionedViews() {
			assert.Same(t, frontImg, refs[v], "view %s must be conditioned on the front image", v)
		}

		require.True(t, set.Complete())
		assert.Equal(t, "front", string(set.Front.Data))
		assert.Equal(t, string(domain.ViewBack), string(set.Back.Data))
		assert.Equal(t, string(domain.ViewLeft), string(set.Left.Data))
		assert.Equal(t, string(domain.ViewRight), string(set.Right.Data))
	})

	t.Run("残り3視点は並行して実行される", func(t *testing.T) {
		barrier := make(chan struct{})
		var arrivals int32

		source := &mockViewSource{
			generateFunc: func(_ context.Context, req domain.ViewRequest) (*domain.ViewImage, error) {
				if req.View == domain.ViewFront {
					return &domain.ViewImage{Data: []byte("front"), MimeType: "image/png"}, nil
				}

				// 3視点すべてが到着するまで待つ。直列実行だとここでタイムアウトする
				if atomic.AddInt32(&arrivals, 1) == 3 {
					close(barrier)
				}
				select {
				case <-barrier:
				case <-time.After(2 * time.Second):
					return nil, fmt.Errorf("timed out waiting for concurrent siblings: %s", req.View)
				}
				return &domain.ViewImage{Data: []byte(req.View), MimeType: "image/png"}, nil
			},
		}

		builder, _ := NewReferenceSetBuilder(source)
		set, err := builder.Build(ctx, BuildRequest{Subject: "subject"})

		require.NoError(t, err)
		assert.True(t, set.Complete())
	})

	t.Run("側面視点の失敗はExhaustedErrorのまま伝播する", func(t *testing.T) {
		sentinel := &ExhaustedError{View: domain.ViewLeft, Attempts: 3, Err: errors.New("no image")}

		source := &mockViewSource{
			generateFunc: func(_ context.Context, req domain.ViewRequest) (*domain.ViewImage, error) {
				if req.View == domain.ViewLeft {
					return nil, sentinel
				}
				return &domain.ViewImage{Data: []byte(req.View), MimeType: "image/png"}, nil
			},
		}

		builder, _ := NewReferenceSetBuilder(source)
		_, err := builder.Build(ctx, BuildRequest{Subject: "subject"})

		require.Error(t, err)
		var exErr *ExhaustedError
		require.True(t, errors.As(err, &exErr), "underlying ExhaustedError should survive wrapping")
		assert.Equal(t, domain.ViewLeft, exErr.View)
	})

	t.Run("正面の失敗時は条件付き生成を一切起動しない", func(t *testing.T) {
		var calls int32
		source := &mockViewSource{
			generateFunc: func(_ context.Context, req domain.ViewRequest) (*domain.ViewImage, error) {
				atomic.AddInt32(&calls, 1)
				return nil, errors.New("front failed")
			},
		}

		builder, _ := NewReferenceSetBuilder(source)
		_, err := builder.Build(ctx, BuildRequest{Subject: "subject"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "正面参照画像の生成に失敗しました")
		assert.EqualValues(t, 1, atomic.LoadInt32(&calls), "side views must not start after front failure")
	})
}

func TestNewReferenceSetBuilder(t *testing.T) {
	_, err := NewReferenceSetBuilder(nil)
	assert.Error(t, err, "nil source must be rejected")
}
