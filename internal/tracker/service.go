// Package tracker manages the lifecycle of campaign monitoring trackers.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/AImitSK/skamp-monitoring/internal/channel"
	"github.com/AImitSK/skamp-monitoring/internal/database"
	"github.com/AImitSK/skamp-monitoring/internal/domain"
	"github.com/AImitSK/skamp-monitoring/internal/keywords"
	"github.com/AImitSK/skamp-monitoring/internal/logger"
)

// CampaignStore reads the campaign and company records behind a tracker.
type CampaignStore interface {
	GetCampaign(ctx context.Context, id string) (*domain.Campaign, error)
	GetCompany(ctx context.Context, id string) (*domain.Company, error)
}

// TrackerStore is the persistence surface for trackers.
type TrackerStore interface {
	Create(ctx context.Context, t *domain.Tracker) error
	GetByCampaign(ctx context.Context, campaignID string) (*domain.Tracker, error)
	DeactivateExpired(ctx context.Context) (int64, error)
}

// ChannelStore persists the channels built for a tracker.
type ChannelStore interface {
	UpsertForTracker(ctx context.Context, trackerID string, channels []domain.Channel) error
}

// SettingsStore reads tenant settings.
type SettingsStore interface {
	GetByOrg(ctx context.Context, orgID string) (*domain.TenantSettings, error)
}

// Service creates trackers for campaigns and retires expired ones.
type Service struct {
	campaigns CampaignStore
	trackers  TrackerStore
	channels  ChannelStore
	settings  SettingsStore
	log       logger.Interface
}

// NewService creates a tracker service.
func NewService(
	campaigns CampaignStore,
	trackers TrackerStore,
	channels ChannelStore,
	settings SettingsStore,
	log logger.Interface,
) *Service {
	return &Service{
		campaigns: campaigns,
		trackers:  trackers,
		channels:  channels,
		settings:  settings,
		log:       log,
	}
}

// CreateForCampaign builds (or rebuilds) the tracker for a campaign:
// keywords from the company record, channels from keywords plus curated
// feeds, monitoring window from the campaign period. Channel ids are
// deterministic, so calling this again after the company record gained a
// name extends the existing tracker instead of duplicating it. A company
// without usable names yields a tracker with an empty channel list; that
// is a recoverable state, not an error.
func (s *Service) CreateForCampaign(ctx context.Context, campaignID string) (*domain.Tracker, error) {
	campaign, err := s.campaigns.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("create tracker get campaign: %w", err)
	}

	company, err := s.campaigns.GetCompany(ctx, campaign.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("create tracker get company: %w", err)
	}

	settings, err := s.settings.GetByOrg(ctx, campaign.OrgID)
	if err != nil {
		return nil, fmt.Errorf("create tracker get settings: %w", err)
	}

	kws := keywords.Extract(*company)
	if len(kws) == 0 {
		s.log.Warn("company has no usable names, tracker gets no query channel",
			"campaign_id", campaignID,
			"company_id", company.ID,
		)
	}

	built := channel.Build(campaignID, kws, *settings)

	trk, err := s.getOrCreate(ctx, campaign)
	if err != nil {
		return nil, err
	}

	for i := range built {
		built[i].TrackerID = trk.ID
	}

	if upsertErr := s.channels.UpsertForTracker(ctx, trk.ID, built); upsertErr != nil {
		return nil, fmt.Errorf("create tracker upsert channels: %w", upsertErr)
	}

	s.log.Info("tracker ready",
		"tracker_id", trk.ID,
		"campaign_id", campaignID,
		"channels", len(built),
		"keywords", len(kws),
	)

	return trk, nil
}

// getOrCreate returns the campaign's existing tracker or creates a new
// one with the campaign's monitoring window.
func (s *Service) getOrCreate(ctx context.Context, campaign *domain.Campaign) (*domain.Tracker, error) {
	existing, err := s.trackers.GetByCampaign(ctx, campaign.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("create tracker lookup: %w", err)
	}

	periodDays := campaign.MonitoringPeriodDays
	if periodDays <= 0 {
		periodDays = domain.DefaultMonitoringPeriodDays
	}

	now := time.Now().UTC()

	trk := &domain.Tracker{
		ID:                  uuid.NewString(),
		OrgID:               campaign.OrgID,
		CampaignID:          campaign.ID,
		IsActive:            true,
		StartDate:           now,
		EndDate:             now.AddDate(0, 0, periodDays),
		PollIntervalMinutes: domain.DefaultPollIntervalMinutes,
	}

	if createErr := s.trackers.Create(ctx, trk); createErr != nil {
		return nil, fmt.Errorf("create tracker insert: %w", createErr)
	}

	return trk, nil
}

// KeywordsForCampaign re-extracts the monitoring keywords from the
// campaign's company record. Channels persist their query, but scoring
// wants the raw keyword list, so it is derived fresh per run.
func (s *Service) KeywordsForCampaign(ctx context.Context, campaignID string) ([]string, error) {
	campaign, err := s.campaigns.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("keywords get campaign: %w", err)
	}

	company, err := s.campaigns.GetCompany(ctx, campaign.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("keywords get company: %w", err)
	}

	return keywords.Extract(*company), nil
}

// DeactivateExpired flips trackers past their end date to inactive.
// They are never deleted.
func (s *Service) DeactivateExpired(ctx context.Context) (int64, error) {
	count, err := s.trackers.DeactivateExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("deactivate expired trackers: %w", err)
	}

	if count > 0 {
		s.log.Info("deactivated expired trackers", "count", count)
	}

	return count, nil
}
