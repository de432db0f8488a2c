package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/aegis-risk/internal/contracts"
	"github.com/wonny/aegis-risk/internal/data"
	"github.com/wonny/aegis-risk/internal/risk"
	"github.com/wonny/aegis-risk/internal/stress"
	"github.com/wonny/aegis-risk/pkg/logger"
)

var errBadRequest = errors.New("bad request")

// StressDefaults 과거 구간 스트레스 기본값
type StressDefaults struct {
	LookbackDays int
	WindowDays   int
}

// ReportCache 리포트 캐시 (Redis). 같은 기준일·같은 파라미터면 재계산하지 않음
type ReportCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// RiskHandler handles risk report and stress endpoints
// ⭐ SSOT: 요청마다 Source에서 새 엔진을 만든다 (공유 가변 상태 없음)
type RiskHandler struct {
	source   data.Source
	defaults risk.ReportOptions
	stress   StressDefaults
	logger   *logger.Logger

	cache    ReportCache
	cacheTTL time.Duration

	// historyDays 소스가 불러오는 최대 거래일 수 (0이면 제한 없음)
	historyDays int
}

// NewRiskHandler creates a new risk handler
func NewRiskHandler(source data.Source, defaults risk.ReportOptions, stressDefaults StressDefaults, log *logger.Logger) *RiskHandler {
	return &RiskHandler{
		source:   source,
		defaults: defaults,
		stress:   stressDefaults,
		logger:   log,
	}
}

// WithCache enables report caching; a nil cache disables it
func (h *RiskHandler) WithCache(cache ReportCache, ttl time.Duration) *RiskHandler {
	h.cache = cache
	h.cacheTTL = ttl
	return h
}

// WithHistoryLimit rejects lookbacks longer than the history the source loads
func (h *RiskHandler) WithHistoryLimit(days int) *RiskHandler {
	h.historyDays = days
	return h
}

// checkHistory lookback + 부가 기간이 로딩된 이력을 넘으면 400
func (h *RiskHandler) checkHistory(lookback, extra int) error {
	if h.historyDays > 0 && lookback+extra > h.historyDays {
		return fmt.Errorf("%w: lookback %d + %d exceeds the %d days of history loaded", errBadRequest, lookback, extra, h.historyDays)
	}
	return nil
}

// GetReport builds a risk report
// GET /api/risk/report?lookback=252&horizon=1&alpha=0.99&sims=20000&seed=123&components=true
func (h *RiskHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	opts, err := h.reportOptions(r)
	if err == nil {
		err = h.checkHistory(opts.LookbackDays, opts.HorizonDays)
	}
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	engine, err := data.LoadEngine(r.Context(), h.source)
	if err != nil {
		h.fail(w, err, "Failed to load inputs")
		return
	}

	var key string
	if h.cache != nil {
		key = reportCacheKey(engine.Prices().LastDate(), inputFingerprint(engine), opts)
		var cached contracts.RiskReport
		found, err := h.cache.Get(r.Context(), key, &cached)
		if err != nil {
			h.logger.WithError(err).Warn("Report cache read failed")
		}
		if found {
			w.Header().Set("X-Cache", "HIT")
			respondJSON(w, http.StatusOK, &cached)
			return
		}
	}

	report, err := engine.BuildReport(opts)
	if err != nil {
		h.fail(w, err, "Failed to build report")
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"run_id":          report.RunID,
		"portfolio_value": report.PortfolioValue,
	}).Debug("Risk report built")

	if h.cache != nil {
		if err := h.cache.Set(r.Context(), key, report, h.cacheTTL); err != nil {
			h.logger.WithError(err).Warn("Report cache write failed")
		}
		w.Header().Set("X-Cache", "MISS")
	}

	respondJSON(w, http.StatusOK, report)
}

// ScenarioRequest 시나리오 스트레스 요청
type ScenarioRequest struct {
	Scenarios []ScenarioInput `json:"scenarios"`
}

// ScenarioInput 시나리오 한 건. 두 가지 형식 모두 허용:
//
//	{"scenario": "Equity crash", "shocks": {"AAPL": -0.2}}
//	{"scenario": "Equity crash", "AAPL_shock": -0.2}
//
// null shock은 충격 없음 (CSV의 빈 칸과 동일).
type ScenarioInput contracts.Scenario

// UnmarshalJSON accepts the nested and the flat "<asset>_shock" layouts.
func (s *ScenarioInput) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	out := ScenarioInput{Shocks: make(map[string]float64)}
	for key, value := range raw {
		switch {
		case key == data.ColScenario:
			if err := json.Unmarshal(value, &out.Name); err != nil {
				return fmt.Errorf("scenario name: %w", err)
			}

		case key == "shocks":
			var shocks map[string]*float64
			if err := json.Unmarshal(value, &shocks); err != nil {
				return fmt.Errorf("shocks: %w", err)
			}
			for asset, v := range shocks {
				if v != nil {
					out.Shocks[asset] = *v
				}
			}

		case strings.HasSuffix(key, data.ShockSuffix) && len(key) > len(data.ShockSuffix):
			var v *float64
			if err := json.Unmarshal(value, &v); err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			if v != nil {
				out.Shocks[strings.TrimSuffix(key, data.ShockSuffix)] = *v
			}

		default:
			return fmt.Errorf("unknown scenario field %q", key)
		}
	}

	*s = out
	return nil
}

// RunScenarios evaluates deterministic shock scenarios
// POST /api/risk/scenarios
func (h *RiskHandler) RunScenarios(w http.ResponseWriter, r *http.Request) {
	var req ScenarioRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	engine, err := data.LoadEngine(r.Context(), h.source)
	if err != nil {
		h.fail(w, err, "Failed to load inputs")
		return
	}

	scenarios := make([]contracts.Scenario, len(req.Scenarios))
	for i, sc := range req.Scenarios {
		scenarios[i] = contracts.Scenario(sc)
	}

	results, err := engine.StressTester().RunScenarios(scenarios)
	if err != nil {
		h.fail(w, err, "Failed to run scenarios")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"asof":    engine.Prices().LastDate(),
		"results": results,
	})
}

// GetWorstWindow scans the lookback for the worst N-day PnL
// GET /api/risk/stress/window?lookback=504&window=10
func (h *RiskHandler) GetWorstWindow(w http.ResponseWriter, r *http.Request) {
	lookback, err := intParam(r, "lookback", h.stress.LookbackDays)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	window, err := intParam(r, "window", h.stress.WindowDays)
	if err == nil {
		err = h.checkHistory(lookback, window)
	}
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	engine, err := data.LoadEngine(r.Context(), h.source)
	if err != nil {
		h.fail(w, err, "Failed to load inputs")
		return
	}

	result, err := engine.StressTester().WorstWindow(lookback, window)
	if err != nil {
		h.fail(w, err, "Failed to scan window")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// fail maps validation errors to 400 and everything else to 500
func (h *RiskHandler) fail(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, risk.ErrInvalidConfig) || errors.Is(err, stress.ErrInvalidInput) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.logger.WithError(err).Error(msg)
	respondError(w, http.StatusInternalServerError, fmt.Sprintf("%s: %v", msg, err))
}

func (h *RiskHandler) reportOptions(r *http.Request) (risk.ReportOptions, error) {
	opts := h.defaults
	var err error

	if opts.LookbackDays, err = intParam(r, "lookback", opts.LookbackDays); err != nil {
		return opts, err
	}
	if opts.HorizonDays, err = intParam(r, "horizon", opts.HorizonDays); err != nil {
		return opts, err
	}
	if opts.Simulations, err = intParam(r, "sims", opts.Simulations); err != nil {
		return opts, err
	}

	q := r.URL.Query()
	if s := q.Get("alpha"); s != "" {
		if opts.Alpha, err = strconv.ParseFloat(s, 64); err != nil {
			return opts, fmt.Errorf("%w: alpha %q", errBadRequest, s)
		}
	}
	if s := q.Get("seed"); s != "" {
		if opts.Seed, err = strconv.ParseUint(s, 10, 64); err != nil {
			return opts, fmt.Errorf("%w: seed %q", errBadRequest, s)
		}
	}
	if s := q.Get("components"); s != "" {
		if opts.IncludeComponentVaR, err = strconv.ParseBool(s); err != nil {
			return opts, fmt.Errorf("%w: components %q", errBadRequest, s)
		}
	}

	return opts, opts.Validate()
}

func intParam(r *http.Request, name string, def int) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def, fmt.Errorf("%w: %s %q", errBadRequest, name, s)
	}
	return v, nil
}
