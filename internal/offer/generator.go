package offer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"log/slog"

	"github.com/vamoapp/vamo/internal/ai"
	"github.com/vamoapp/vamo/internal/config"
	"github.com/vamoapp/vamo/internal/turn"
	"github.com/vamoapp/vamo/pkg/models"
	"github.com/vamoapp/vamo/pkg/repository"
)

// offerTTL is how long a generated offer stays active before it expires.
const offerTTL = 7 * 24 * time.Hour

// Generator produces valuation offers for a project, rate limited per user.
type Generator struct {
	projects repository.ProjectRepo
	messages repository.MessageRepo
	activity repository.ActivityRepo
	links    repository.LinkRepo
	offers   repository.OfferRepo
	advisor  *ai.OfferAdvisor
	cfg      config.RewardsConfig
	logger   *slog.Logger
}

func NewGenerator(projects repository.ProjectRepo, messages repository.MessageRepo, activity repository.ActivityRepo, links repository.LinkRepo, offers repository.OfferRepo, advisor *ai.OfferAdvisor, cfg config.RewardsConfig, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Generator{
		projects: projects,
		messages: messages,
		activity: activity,
		links:    links,
		offers:   offers,
		advisor:  advisor,
		cfg:      cfg,
		logger:   logger,
	}
}

// Generate builds a project summary, asks the advisor for an offer range and
// persists it. Previously active offers for the project are expired first, so
// at most one offer is active at a time. The expire and insert are separate
// statements; a crash between them leaves the project with no active offer,
// which the next generation heals.
func (g *Generator) Generate(ctx context.Context, userID, projectID int64) (*models.Offer, *ai.OfferProposal, error) {
	project, err := g.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, nil, fmt.Errorf("load project: %w", err)
	}
	if project == nil || project.UserID != userID {
		return nil, nil, turn.ErrNotFound
	}

	since := time.Now().UTC().Add(-time.Hour).UnixMilli()
	count, err := g.offers.CountOffersSince(ctx, userID, since)
	if err != nil {
		return nil, nil, fmt.Errorf("offer rate check: %w", err)
	}
	if count >= g.cfg.OffersPerHour {
		return nil, nil, turn.ErrRateLimited
	}

	summary, err := g.summarize(ctx, project)
	if err != nil {
		return nil, nil, err
	}

	proposal := g.advisor.Propose(ctx, summary)

	signals, err := json.Marshal(proposal.SignalsUsed)
	if err != nil {
		signals = []byte("[]")
	}

	if err := g.offers.ExpireActiveOffers(ctx, projectID, userID); err != nil {
		return nil, nil, fmt.Errorf("expire active offers: %w", err)
	}

	o := &models.Offer{
		ProjectID: projectID,
		UserID:    userID,
		OfferLow:  proposal.OfferLow,
		OfferHigh: proposal.OfferHigh,
		Reasoning: proposal.Reasoning,
		Signals:   string(signals),
		Status:    models.OfferActive,
		ExpiresAt: time.Now().UTC().Add(offerTTL).UnixMilli(),
	}
	id, err := g.offers.CreateOffer(ctx, o)
	if err != nil {
		return nil, nil, fmt.Errorf("insert offer: %w", err)
	}
	o.ID = id

	event := &models.ActivityEvent{
		UserID:      userID,
		ProjectID:   &projectID,
		EventType:   models.EventOfferGenerated,
		Description: fmt.Sprintf("Received an offer of $%d-$%d", proposal.OfferLow, proposal.OfferHigh),
	}
	if _, err := g.activity.CreateEvent(ctx, event); err != nil {
		g.logger.Warn("record offer event failed", slog.Any("err", err))
	}

	return o, proposal, nil
}

// tractionEventTypes are the activity rows counted as traction evidence.
var tractionEventTypes = []string{models.EventFeatureShipped, models.EventCustomerAdded, models.EventRevenueLogged}

func (g *Generator) summarize(ctx context.Context, project *models.Project) (ai.OfferSummary, error) {
	var s ai.OfferSummary
	s.Name = project.Name
	s.Progress = project.ProgressScore

	msgCount, err := g.messages.CountMessagesByProject(ctx, project.ID)
	if err != nil {
		return s, fmt.Errorf("count messages: %w", err)
	}
	s.MessageCount = msgCount

	traction, err := g.activity.CountByProjectTypes(ctx, project.ID, tractionEventTypes)
	if err != nil {
		return s, fmt.Errorf("count traction events: %w", err)
	}
	s.TractionCount = traction

	linkCount, err := g.links.CountLinksByProject(ctx, project.ID)
	if err != nil {
		return s, fmt.Errorf("count links: %w", err)
	}
	s.LinkCount = linkCount

	events, err := g.activity.ListRecentByProject(ctx, project.ID, 10)
	if err != nil {
		return s, fmt.Errorf("list recent events: %w", err)
	}
	for _, ev := range events {
		if ev.Description != "" {
			s.RecentEvents = append(s.RecentEvents, ev.Description)
		}
	}

	return s, nil
}
