// Package reconcile fills in the public URLs of media records once the remote platform
// has finished processing the uploaded files.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/indieinfra/hydrogen/metrics"
	"github.com/indieinfra/hydrogen/notify"
	"github.com/indieinfra/hydrogen/shopify"
	"github.com/indieinfra/hydrogen/storage/media"
)

const fileLookupQuery = `query fileLookup($query: String!) {
  files(first: 1, query: $query) {
    edges {
      node {
        __typename
        ... on GenericFile {
          id
          url
        }
        ... on MediaImage {
          id
          image {
            url
          }
        }
      }
    }
  }
}`

type Report struct {
	RunID      string `json:"run_id"`
	Pending    int    `json:"pending"`
	Resolved   int    `json:"resolved"`
	Unresolved int    `json:"unresolved"`
	Failed     int    `json:"failed"`
}

type Job struct {
	store    media.Store
	gateway  shopify.Gateway
	notifier notify.Notifier
	logger   zerolog.Logger
}

type nopNotifier struct{}

func (nopNotifier) MediaFileUpdated(context.Context, *media.Record) {}

func NewJob(store media.Store, gateway shopify.Gateway, notifier notify.Notifier, logger zerolog.Logger) *Job {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Job{
		store:    store,
		gateway:  gateway,
		notifier: notifier,
		logger:   logger.With().Str("component", "reconcile").Logger(),
	}
}

// Run resolves every pending record once. Per-record failures are logged and counted in
// the report; only failing to list pending records (or cancellation) returns an error.
func (j *Job) Run(ctx context.Context) (Report, error) {
	report := Report{RunID: uuid.NewString()}
	log := j.logger.With().Str("run_id", report.RunID).Logger()

	pending, err := j.store.Pending(ctx)
	if err != nil {
		metrics.ReconcileRunsTotal.WithLabelValues("error").Inc()
		log.Error().Err(err).Msg("failed to list pending media")
		return report, fmt.Errorf("list pending media: %w", err)
	}

	report.Pending = len(pending)
	log.Info().Msgf("Fetching %d file urls", len(pending))

	for _, rec := range pending {
		if err := ctx.Err(); err != nil {
			metrics.ReconcileRunsTotal.WithLabelValues("canceled").Inc()
			log.Warn().Err(err).Interface("report", report).Msg("reconciliation interrupted")
			return report, err
		}

		outcome := j.reconcile(ctx, log, rec)
		metrics.ReconcileRecordsTotal.WithLabelValues(outcome).Inc()

		switch outcome {
		case "resolved":
			report.Resolved++
		case "unresolved":
			report.Unresolved++
		default:
			report.Failed++
		}
	}

	metrics.ReconcileRunsTotal.WithLabelValues("ok").Inc()
	log.Info().
		Int("pending", report.Pending).
		Int("resolved", report.Resolved).
		Int("unresolved", report.Unresolved).
		Int("failed", report.Failed).
		Msg("reconciliation finished")

	return report, nil
}

func (j *Job) reconcile(ctx context.Context, log zerolog.Logger, rec *media.Record) string {
	// The store already filters these; a resolved record must never be rewritten.
	if !rec.IsPending() {
		return "unresolved"
	}

	externalID := *rec.ExternalID
	log.Info().Int64("media_id", rec.ID).Msgf("Fetching image for: %s", externalID)

	node, err := j.Lookup(ctx, externalID)
	if err != nil {
		var lookupErr *LookupError
		if errors.As(err, &lookupErr) {
			lookupErr.MediaID = rec.ID
		}
		log.Warn().Err(err).Int64("media_id", rec.ID).Msg("file lookup failed")
		return "failed"
	}

	if !node.Resolved() {
		log.Debug().Int64("media_id", rec.ID).Msg("file not ready yet")
		return "unresolved"
	}

	updated := rec.Clone()
	updated.ExternalURL = media.StringPtr(node.URL)
	if err := j.store.Save(ctx, updated); err != nil {
		log.Error().Err(err).Int64("media_id", rec.ID).Msg("failed to save resolved url")
		return "failed"
	}

	j.notifier.MediaFileUpdated(ctx, updated)
	return "resolved"
}

// Lookup asks the platform for the file identified by externalID. A nil node with a nil
// error means the platform returned no match yet.
func (j *Job) Lookup(ctx context.Context, externalID string) (*FileNode, error) {
	variables := map[string]any{"query": "id:" + shopify.LastSegment(externalID)}

	status, body, err := j.gateway.Execute(ctx, fileLookupQuery, variables)
	if err != nil {
		return nil, &LookupError{ExternalID: externalID, Err: err}
	}
	if status != http.StatusOK {
		return nil, &LookupError{ExternalID: externalID, StatusCode: status}
	}

	var data struct {
		Files struct {
			Edges []struct {
				Node FileNode `json:"node"`
			} `json:"edges"`
		} `json:"files"`
	}
	if err := shopify.DecodeData(body, &data); err != nil {
		return nil, &LookupError{ExternalID: externalID, StatusCode: status, Err: err}
	}

	if len(data.Files.Edges) == 0 {
		return nil, nil
	}
	node := data.Files.Edges[0].Node
	return &node, nil
}
