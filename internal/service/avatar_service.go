package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"accounthub/api/internal/ids"
	"accounthub/api/internal/media/sniffer"
	"accounthub/api/internal/models"
	"accounthub/api/internal/repository"
)

var (
	ErrUndecodableImage = errors.New("cannot decode image")
	ErrAvatarNotFound   = errors.New("avatar not found")
)

// ImageNormalizer renders upload bytes to the stored avatar format.
type ImageNormalizer interface {
	Normalize(data []byte) ([]byte, error)
}

// OriginalArchiver keeps the pre-resize upload bytes. Archival is
// best-effort; failures are logged and never surfaced to the client.
type OriginalArchiver interface {
	ArchiveOriginal(ctx context.Context, userID string, uploadID string, filename string, contentType string, data []byte) error
}

type AvatarService struct {
	users    UserStore
	codec    ImageNormalizer
	archive  OriginalArchiver
	cache    *redis.Client
	cacheTTL time.Duration
	log      zerolog.Logger
}

func NewAvatarService(users UserStore, codec ImageNormalizer, archive OriginalArchiver, cache *redis.Client, cacheTTL time.Duration, log zerolog.Logger) *AvatarService {
	return &AvatarService{
		users:    users,
		codec:    codec,
		archive:  archive,
		cache:    cache,
		cacheTTL: cacheTTL,
		log:      log,
	}
}

// Store normalizes the upload and replaces any prior avatar.
func (s *AvatarService) Store(ctx context.Context, user models.User, filename string, data []byte) error {
	normalized, err := s.codec.Normalize(data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUndecodableImage, err)
	}

	if err := s.users.SetAvatar(ctx, user.ID, normalized); err != nil {
		return err
	}

	s.archiveOriginal(ctx, user.ID, filename, data)
	s.Invalidate(ctx, user.ID)
	return nil
}

func (s *AvatarService) Clear(ctx context.Context, userID string) error {
	if err := s.users.ClearAvatar(ctx, userID); err != nil {
		return err
	}
	s.Invalidate(ctx, userID)
	return nil
}

// Fetch returns the stored PNG, reading through the cache. A missing user
// and a user without an avatar are indistinguishable to the caller.
func (s *AvatarService) Fetch(ctx context.Context, userID string) ([]byte, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, avatarCacheKey(userID)).Bytes(); err == nil && len(cached) > 0 {
			return cached, nil
		}
	}

	avatar, err := s.users.GetAvatar(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrAvatarNotFound
		}
		return nil, err
	}
	if len(avatar) == 0 {
		return nil, ErrAvatarNotFound
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, avatarCacheKey(userID), avatar, s.cacheTTL).Err(); err != nil {
			s.log.Warn().Err(err).Str("user_id", userID).Msg("avatar cache set failed")
		}
	}
	return avatar, nil
}

func (s *AvatarService) archiveOriginal(ctx context.Context, userID string, filename string, data []byte) {
	if s.archive == nil {
		return
	}

	contentType := ""
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	if detected, err := sniffer.DetectHead(head); err == nil {
		contentType = detected.MIME
	}

	if err := s.archive.ArchiveOriginal(ctx, userID, ids.New(), filename, contentType, data); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("archive original failed")
	}
}

// Invalidate drops the cached copy of a user's avatar. Callers that remove
// the user record itself must invalidate too, or the cache keeps serving the
// avatar until the TTL runs out.
func (s *AvatarService) Invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, avatarCacheKey(userID)).Err(); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("avatar cache invalidate failed")
	}
}

func avatarCacheKey(userID string) string {
	return "avatar:" + userID
}
