package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	domainErrors "github.com/vihaglobalsystems-prog/selt-backend/internal/domain/errors"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/model"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/repository"
)

const syncResultLimit = 100

// Result fields stored in their own columns; everything else goes to Data
const (
	resultFieldTestID     = "testId"
	resultFieldLevel      = "level"
	resultFieldScore      = "score"
	resultFieldTotal      = "total"
	resultFieldPercentage = "percentage"
	resultFieldSection    = "section"
	resultFieldTimestamp  = "timestamp"
)

// profileFieldAvatar holds inline image data the client keeps locally
const profileFieldAvatar = "avatar"

// SavedResult is returned after a test result is stored
type SavedResult struct {
	Saved bool      `json:"saved"`
	ID    uuid.UUID `json:"id"`
}

// SyncService keeps the learner's profile and test history keyed by email
type SyncService struct {
	users    repository.UserRepository
	profiles repository.UserProfileRepository
	results  repository.TestResultRepository
	now      func() time.Time
	logger   *zap.Logger
}

// NewSyncService creates a new sync service
func NewSyncService(repos *repository.Repositories, logger *zap.Logger) *SyncService {
	return &SyncService{
		users:    repos.User,
		profiles: repos.Profile,
		results:  repos.TestResult,
		now:      time.Now,
		logger:   logger,
	}
}

// Profile returns the stored profile document, or nil when none was saved
func (s *SyncService) Profile(ctx context.Context, email string) (json.RawMessage, error) {
	profile, err := s.profiles.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, nil
	}
	return json.RawMessage(profile.Profile), nil
}

// SaveProfile replaces the profile document for email. The avatar field is
// dropped before storing.
func (s *SyncService) SaveProfile(ctx context.Context, email string, document map[string]interface{}) error {
	delete(document, profileFieldAvatar)

	raw, err := json.Marshal(document)
	if err != nil {
		return domainErrors.InvalidArgument("Invalid profile")
	}

	userID, err := s.linkedUserID(ctx, email)
	if err != nil {
		return err
	}

	now := s.now()
	if err := s.profiles.Upsert(ctx, &model.UserProfile{
		Email:     email,
		UserID:    userID,
		Profile:   datatypes.JSON(raw),
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		return err
	}

	s.logger.Debug("Profile saved", zap.String("email", email))
	return nil
}

// Results lists the newest test results for email
func (s *SyncService) Results(ctx context.Context, email string) ([]*model.TestResult, error) {
	results, err := s.results.ListByEmail(ctx, email, syncResultLimit)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []*model.TestResult{}
	}
	return results, nil
}

// SaveResult stores one test result. A missing testId is generated and a
// missing timestamp defaults to now; other unknown fields are kept in Data.
func (s *SyncService) SaveResult(ctx context.Context, email string, payload map[string]interface{}) (*SavedResult, error) {
	now := s.now()
	result := &model.TestResult{Email: email, CreatedAt: now}

	var err error
	if result.Level, err = optionalString(payload, resultFieldLevel); err != nil {
		return nil, err
	}
	if result.Section, err = optionalString(payload, resultFieldSection); err != nil {
		return nil, err
	}
	if result.Score, err = optionalNumber(payload, resultFieldScore); err != nil {
		return nil, err
	}
	if result.Total, err = optionalNumber(payload, resultFieldTotal); err != nil {
		return nil, err
	}
	if result.Percentage, err = optionalNumber(payload, resultFieldPercentage); err != nil {
		return nil, err
	}
	if result.Timestamp, err = resultTimestamp(payload[resultFieldTimestamp], now); err != nil {
		return nil, err
	}

	testID, err := optionalString(payload, resultFieldTestID)
	if err != nil {
		return nil, err
	}
	if testID != nil && *testID != "" {
		result.TestID = *testID
	} else {
		result.TestID = "test_" + strconv.FormatInt(now.UnixMilli(), 10)
	}

	rest := make(map[string]interface{}, len(payload))
	for k, v := range payload {
		switch k {
		case resultFieldTestID, resultFieldLevel, resultFieldScore, resultFieldTotal,
			resultFieldPercentage, resultFieldSection, resultFieldTimestamp:
			continue
		}
		rest[k] = v
	}
	data, err := json.Marshal(rest)
	if err != nil {
		return nil, domainErrors.InvalidArgument("Invalid result")
	}
	result.Data = datatypes.JSON(data)

	if result.UserID, err = s.linkedUserID(ctx, email); err != nil {
		return nil, err
	}

	if err := s.results.Create(ctx, result); err != nil {
		return nil, err
	}

	s.logger.Debug("Test result saved",
		zap.String("email", email),
		zap.String("test_id", result.TestID))

	return &SavedResult{Saved: true, ID: result.ID}, nil
}

// linkedUserID returns the local account id for email, or nil when there is none
func (s *SyncService) linkedUserID(ctx context.Context, email string) (*uuid.UUID, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}
	id := user.ID
	return &id, nil
}

func optionalString(payload map[string]interface{}, key string) (*string, error) {
	v, ok := payload[key]
	if !ok || v == nil {
		return nil, nil
	}
	str, ok := v.(string)
	if !ok {
		return nil, domainErrors.InvalidArgument(fmt.Sprintf("%s must be a string", key))
	}
	return &str, nil
}

func optionalNumber(payload map[string]interface{}, key string) (*float64, error) {
	v, ok := payload[key]
	if !ok || v == nil {
		return nil, nil
	}
	n, ok := v.(float64)
	if !ok {
		return nil, domainErrors.InvalidArgument(fmt.Sprintf("%s must be a number", key))
	}
	return &n, nil
}

// resultTimestamp accepts epoch milliseconds or an RFC 3339 string
func resultTimestamp(v interface{}, now time.Time) (time.Time, error) {
	switch ts := v.(type) {
	case nil:
		return now, nil
	case float64:
		if ts == 0 {
			return now, nil
		}
		return time.UnixMilli(int64(ts)).UTC(), nil
	case string:
		if ts == "" {
			return now, nil
		}
		parsed, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return time.Time{}, domainErrors.InvalidArgument("Invalid timestamp")
		}
		return parsed, nil
	default:
		return time.Time{}, domainErrors.InvalidArgument("Invalid timestamp")
	}
}
