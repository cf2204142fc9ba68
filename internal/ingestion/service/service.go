package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"autohaul_crm_backend/internal/ingestion/adapter"
	leadservice "autohaul_crm_backend/internal/leads/service"
	leadtransport "autohaul_crm_backend/internal/leads/transport"
	"autohaul_crm_backend/platform/apperr"
	"autohaul_crm_backend/platform/config"
	"autohaul_crm_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	fetchTimeout     = 30 * time.Second
	maxFeedBodyBytes = 4 << 20
)

// LeadIngestor is the narrow leads-service interface ingestion needs:
// dedup on (tenant, external id) plus public id allocation happen there.
type LeadIngestor interface {
	Ingest(ctx context.Context, tenantID uuid.UUID, inbound leadservice.InboundLead) (*leadtransport.LeadResponse, bool, error)
}

// Result summarizes one ingested payload.
type Result struct {
	Source     string `json:"source"`
	Received   int    `json:"received"`
	Created    int    `json:"created"`
	Duplicates int    `json:"duplicates"`
}

// Service routes upstream payloads through their source adapters into the
// leads service.
type Service struct {
	registry *adapter.Registry
	leads    LeadIngestor
	client   *http.Client
	cfg      config.IngestionConfig
	log      *logger.Logger
}

// New creates a new ingestion service.
func New(registry *adapter.Registry, leads LeadIngestor, cfg config.IngestionConfig, log *logger.Logger) *Service {
	return &Service{
		registry: registry,
		leads:    leads,
		client:   &http.Client{Timeout: fetchTimeout},
		cfg:      cfg,
		log:      log,
	}
}

// IngestPayload parses the payload with the source's adapter and hands every
// record to the leads service. Duplicates (already-seen external ids) count
// but do not fail the batch.
func (s *Service) IngestPayload(ctx context.Context, tenantID uuid.UUID, source string, payload []byte) (*Result, error) {
	sourceAdapter, ok := s.registry.Lookup(source)
	if !ok {
		return nil, apperr.NotFound(fmt.Sprintf("unknown ingestion source %q", source))
	}

	inbound, err := sourceAdapter.Parse(payload)
	if err != nil {
		return nil, err
	}

	result := &Result{Source: source, Received: len(inbound)}
	for _, lead := range inbound {
		_, created, err := s.leads.Ingest(ctx, tenantID, lead)
		if err != nil {
			return nil, fmt.Errorf("failed to ingest lead %s from %s: %w", lead.ExternalID, source, err)
		}
		if created {
			result.Created++
		} else {
			result.Duplicates++
		}
	}

	s.log.Info("ingested payload",
		"source", source,
		"received", result.Received,
		"created", result.Created,
		"duplicates", result.Duplicates,
	)
	return result, nil
}

// PollFeeds fetches every configured feed concurrently and pushes the
// results through the same adapter path as the webhook. A failing feed does
// not stop the others; the first error is reported after all finish.
func (s *Service) PollFeeds(ctx context.Context) error {
	feeds := s.cfg.GetIngestionFeeds()
	if len(feeds) == 0 {
		return nil
	}

	tenantID, err := uuid.Parse(s.cfg.GetIngestionTenantID())
	if err != nil {
		return fmt.Errorf("invalid ingestion tenant id: %w", err)
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for source, url := range feeds {
		source, url := source, url
		group.Go(func() error {
			if err := s.pollFeed(groupCtx, tenantID, source, url); err != nil {
				s.log.Error("feed poll failed", "source", source, "error", err)
				return err
			}
			return nil
		})
	}
	return group.Wait()
}

func (s *Service) pollFeed(ctx context.Context, tenantID uuid.UUID, source, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build feed request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBodyBytes))
	if err != nil {
		return fmt.Errorf("failed to read feed body: %w", err)
	}

	_, err = s.IngestPayload(ctx, tenantID, source, payload)
	return err
}
