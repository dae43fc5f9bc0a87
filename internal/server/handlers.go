package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"wavepipe/internal/history"
	"wavepipe/internal/infocache"
	"wavepipe/internal/logging"
	"wavepipe/internal/media"
	"wavepipe/internal/metadata"
	"wavepipe/internal/metrics"
	"wavepipe/internal/preflight"
	"wavepipe/internal/services"
	"wavepipe/internal/stream"
)

const recordTimeout = 5 * time.Second

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	rawURL := r.URL.Query().Get("url")
	target, err := s.policy.Validate(rawURL)
	if err != nil {
		err = services.Wrap(services.ErrInvalidRequest, "info", "validate", err.Error(), nil)
		s.finishInfo(r, rawURL, "", started, "", err)
		writeError(w, err)
		return
	}

	key := infocache.Key(target)
	if cached, ok := s.cache.Get(r.Context(), key); ok {
		s.finishInfo(r, target, cached.Title(), started, "hit", nil)
		writeJSON(w, http.StatusOK, cached)
		return
	}

	// Identical concurrent lookups share one engine run. The run is detached
	// from any single caller so one client leaving does not fail the rest.
	detached := context.WithoutCancel(r.Context())
	value, err, shared := s.infoGroup.Do(key, func() (any, error) {
		result, err := s.downloader.Describe(detached, target)
		if err != nil {
			return nil, err
		}
		s.cache.Set(detached, key, result)
		return result, nil
	})
	cacheLabel := "miss"
	if shared {
		cacheLabel = "shared"
	}
	if err != nil {
		s.finishInfo(r, target, "", started, cacheLabel, err)
		writeError(w, err)
		return
	}
	result := value.(metadata.Result)
	s.finishInfo(r, target, result.Title(), started, cacheLabel, nil)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) finishInfo(r *http.Request, url, title string, started time.Time, cache string, err error) {
	outcome := outcomeOf(err)
	if cache == "" {
		cache = "none"
	}
	metrics.RecordInfo(outcome, cache)
	if err != nil {
		logging.WithContext(r.Context(), s.logger).Warn("info request failed",
			logging.String("url", url),
			logging.String(logging.FieldEventType, outcome),
			logging.Error(err),
		)
	}
	s.record(r.Context(), history.Entry{
		Kind:     history.KindInfo,
		URL:      url,
		Outcome:  outcome,
		Details:  services.Details(err),
		Title:    title,
		Duration: time.Since(started).Milliseconds(),
	})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	query := r.URL.Query()
	rawURL := query.Get("url")

	format, err := media.ParseFormat(query.Get("format"))
	if err != nil {
		s.failDownload(w, r, rawURL, "", started, services.Wrap(services.ErrInvalidRequest, "download", "validate", err.Error(), nil))
		return
	}
	target, err := s.policy.Validate(rawURL)
	if err != nil {
		s.failDownload(w, r, rawURL, format, started, services.Wrap(services.ErrInvalidRequest, "download", "validate", err.Error(), nil))
		return
	}

	release, err := s.admit(r.Context())
	if err != nil {
		s.failDownload(w, r, target, format, started, err)
		return
	}
	defer release()

	// The engine keeps running if the client disconnects; fetch_timeout bounds it.
	dl, err := s.downloader.Fetch(context.WithoutCancel(r.Context()), media.Request{URL: target, Format: format})
	if err != nil {
		s.failDownload(w, r, target, format, started, err)
		return
	}

	logger := logging.WithContext(services.WithWorkspaceID(r.Context(), dl.WorkspaceID), s.logger)
	written, copyErr := stream.Serve(w, dl.Payload())
	metrics.AddBytesStreamed(format.String(), written)
	outcome := history.OutcomeOK
	details := ""
	if copyErr != nil {
		outcome = "ClientAborted"
		details = copyErr.Error()
		logger.Warn("download stream interrupted",
			logging.Int64("bytes", written),
			logging.Int64("expected", dl.ContentLength),
			logging.Error(copyErr),
		)
	} else {
		logger.Info("download streamed",
			logging.String("filename", dl.Filename),
			logging.Int64("bytes", written),
			logging.Duration("elapsed", time.Since(started)),
		)
	}
	metrics.RecordDownload(format.String(), outcome)
	s.record(r.Context(), history.Entry{
		Kind:     history.KindDownload,
		URL:      target,
		Format:   format.String(),
		Outcome:  outcome,
		Details:  details,
		Title:    dl.Probe.Title,
		Bytes:    written,
		Duration: time.Since(started).Milliseconds(),
	})
}

func (s *Server) failDownload(w http.ResponseWriter, r *http.Request, url string, format media.Format, started time.Time, err error) {
	outcome := outcomeOf(err)
	metrics.RecordDownload(format.String(), outcome)
	logging.WithContext(r.Context(), s.logger).Warn("download request failed",
		logging.String("url", url),
		logging.String(logging.FieldEventType, outcome),
		logging.Error(err),
	)
	s.record(r.Context(), history.Entry{
		Kind:     history.KindDownload,
		URL:      url,
		Format:   format.String(),
		Outcome:  outcome,
		Details:  services.Details(err),
		Duration: time.Since(started).Milliseconds(),
	})
	writeError(w, err)
}

// admit takes a download slot, waiting at most admission_wait. The returned
// release func must be called once the stream is finished.
func (s *Server) admit(ctx context.Context) (func(), error) {
	if s.slots == nil {
		metrics.IncDownloadsInFlight()
		return metrics.DecDownloadsInFlight, nil
	}
	acquired := false
	if s.admissionWait <= 0 {
		acquired = s.slots.TryAcquire(1)
	} else {
		waitCtx, cancel := context.WithTimeout(ctx, s.admissionWait)
		acquired = s.slots.Acquire(waitCtx, 1) == nil
		cancel()
	}
	if !acquired {
		metrics.RecordAdmissionReject()
		return nil, services.Wrap(services.ErrBusy, "download", "admission", "all download slots are busy, retry later", nil)
	}
	metrics.IncDownloadsInFlight()
	return func() {
		metrics.DecDownloadsInFlight()
		s.slots.Release(1)
	}, nil
}

type healthResponse struct {
	preflight.Report
	Cache infocache.Stats `json:"cache"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := preflight.Report{Ready: true}
	if s.health != nil {
		report = s.health(r.Context())
	}
	status := http.StatusOK
	if !report.Ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthResponse{Report: report, Cache: s.cache.Stats()})
}

type historyResponse struct {
	Entries []history.Entry `json:"entries"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "NotFound", Details: "request history is disabled"})
		return
	}
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 1000 {
			writeError(w, services.Wrap(services.ErrInvalidRequest, "history", "validate", "limit must be between 1 and 1000", nil))
			return
		}
		limit = parsed
	}
	entries, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	writeJSON(w, http.StatusOK, historyResponse{Entries: entries})
}

// record appends to the ledger; failures are logged only.
func (s *Server) record(ctx context.Context, entry history.Entry) {
	if s.history == nil {
		return
	}
	if id, ok := services.RequestIDFromContext(ctx); ok {
		entry.RequestID = id
	}
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if err := s.history.Record(recordCtx, entry); err != nil {
		logging.WithContext(ctx, s.logger).Warn("history record failed", logging.Error(err))
	}
}

func outcomeOf(err error) string {
	if err == nil {
		return history.OutcomeOK
	}
	return services.Category(err)
}
