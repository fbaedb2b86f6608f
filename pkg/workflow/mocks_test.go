package workflow

import (
	"context"

	"github.com/shouni/gemini-scene-kit/pkg/domain"
)

// --- Mocks ---

type mockAnalyst struct {
	analyzeFunc func(ctx context.Context, subject string, refs *domain.ReferenceImageSet) (string, error)
	calls       int
}

func (m *mockAnalyst) Analyze(ctx context.Context, subject string, refs *domain.ReferenceImageSet) (string, error) {
	m.calls++
	return m.analyzeFunc(ctx, subject, refs)
}

type mockSceneModel struct {
	describeFunc func(ctx context.Context, req domain.SceneRequest) (string, error)
	calls        int
	lastReq      domain.SceneRequest
}

func (m *mockSceneModel) DescribeScene(ctx context.Context, req domain.SceneRequest) (string, error) {
	m.calls++
	m.lastReq = req
	return m.describeFunc(ctx, req)
}

// --- Test data helpers ---

func completeRefs() *domain.ReferenceImageSet {
	img := func(name string) *domain.ViewImage {
		return &domain.ViewImage{Data: []byte(name), MimeType: "image/png"}
	}
	return &domain.ReferenceImageSet{
		Front: img("front"),
		Back:  img("back"),
		Left:  img("left"),
		Right: img("right"),
	}
}

func collect(ch <-chan domain.ProgressEvent) []domain.ProgressEvent {
	var events []domain.ProgressEvent
	for ev := range ch {
		events = append(events, ev)
	}
	return events
}
