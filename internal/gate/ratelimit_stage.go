// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package gate

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/taibuivan/storehub/internal/platform/apperr"
	"github.com/taibuivan/storehub/internal/platform/constants"
	"github.com/taibuivan/storehub/internal/platform/ctxutil"
	"github.com/taibuivan/storehub/internal/platform/metrics"
	"github.com/taibuivan/storehub/internal/platform/middleware"
	"github.com/taibuivan/storehub/internal/ratelimit"
	"github.com/taibuivan/storehub/internal/secevent"
)

// RateLimit returns a stage admitting requests per caller IP through limiter.
//
// A limiter error fails open: the request continues and a warning is logged.
// registry may be nil.
func RateLimit(limiter ratelimit.Limiter, events secevent.Recorder, registry *metrics.Registry) Stage {
	return func(request *http.Request, rc RequestContext) Result {
		ip := middleware.ClientIP(request)

		decision, err := limiter.Allow(request.Context(), ip)
		if err != nil {
			ctxutil.GetLogger(request.Context()).WarnContext(request.Context(), "ratelimit_unavailable",
				slog.String("ip", ip),
				slog.Any("error", err),
			)
			return Continue(rc)
		}

		if decision.Allowed {
			return Continue(rc).
				WithHeader(constants.HeaderRateLimit, strconv.Itoa(decision.Limit)).
				WithHeader(constants.HeaderRateRemaining, strconv.Itoa(decision.Remaining))
		}

		retryAfter := ratelimit.RetryAfterSeconds(decision.RetryAfter)
		events.Record(secevent.EventRateLimitExceeded, requestDetails(request, secevent.Details{
			"limit":      decision.Limit,
			"retryAfter": retryAfter,
		}), secevent.SeverityMedium)
		if registry != nil {
			registry.RateLimitRejections.Inc()
		}

		return Reject(apperr.RateLimitExceeded(retryAfter)).
			WithHeader(constants.HeaderRetryAfter, strconv.Itoa(retryAfter)).
			WithHeader(constants.HeaderRateLimit, strconv.Itoa(decision.Limit)).
			WithHeader(constants.HeaderRateRemaining, "0")
	}
}
