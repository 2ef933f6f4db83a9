package service

import (
	"context"
	"strconv"
	"time"

	"github.com/moamarket/chat-service/internal/metrics"
	"github.com/moamarket/chat-service/internal/store"
	"github.com/moamarket/chat-service/internal/viewdedup"
)

// ViewService — два независимых счётчика просмотров (объявления и посты
// сообщества) поверх одного dedup-кэша.
type ViewService struct {
	st     store.Store
	dedup  *viewdedup.Cache
	window time.Duration
}

func NewViewService(st store.Store, dedup *viewdedup.Cache, window time.Duration) *ViewService {
	if window <= 0 {
		window = viewdedup.DefaultWindow
	}
	return &ViewService{st: st, dedup: dedup, window: window}
}

// RegisterListingView инкрементит счётчик объявления, если зритель не
// повторяется внутри окна. Возвращает (засчитан ли, актуальный счётчик).
func (s *ViewService) RegisterListingView(ctx context.Context, listingID, viewerUserID int64, remoteAddr string) (bool, int64, error) {
	return s.register(ctx, "listing", listingID, viewerUserID, remoteAddr, s.st.IncrementListingViews)
}

func (s *ViewService) RegisterCommunityPostView(ctx context.Context, postID, viewerUserID int64, remoteAddr string) (bool, int64, error) {
	return s.register(ctx, "community_post", postID, viewerUserID, remoteAddr, s.st.IncrementCommunityPostViews)
}

func (s *ViewService) register(ctx context.Context, kind string, contentID, viewerUserID int64, remoteAddr string,
	increment func(context.Context, int64) (int64, error)) (bool, int64, error) {

	contentKey := kind + ":" + strconv.FormatInt(contentID, 10)
	viewerKey := viewdedup.ViewerKey(viewerUserID, remoteAddr)

	if !s.dedup.ShouldCount(contentKey, viewerKey, s.window) {
		metrics.ViewsTotal.WithLabelValues(kind, "deduplicated").Inc()
		return false, 0, nil
	}
	n, err := increment(ctx, contentID)
	if err != nil {
		return false, 0, err
	}
	metrics.ViewsTotal.WithLabelValues(kind, "counted").Inc()
	return true, n, nil
}
