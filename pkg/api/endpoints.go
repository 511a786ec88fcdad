// CLAUDE:SUMMARY Transport-agnostic endpoints shared by the HTTP router and the MCP tools.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/moisessantoslimaadm-debug/matriculas/pkg/kit"
	"github.com/moisessantoslimaadm-debug/matriculas/pkg/registry"
)

// Shared request/response types used by both HTTP and MCP transports.

type searchStudentsReq struct {
	Query string
}

type studentsResponse struct {
	Students []registry.Student `json:"students"`
}

type listSchoolsReq struct {
	Lat   float64
	Lng   float64
	Limit int
}

type schoolsResponse struct {
	Schools []registry.School `json:"schools"`
}

func searchStudentsEndpoint(store *registry.Store) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*searchStudentsReq)
		if req.Query == "" {
			return studentsResponse{Students: store.Students()}, nil
		}
		return studentsResponse{Students: store.SearchStudents(req.Query)}, nil
	}
}

func listSchoolsEndpoint(store *registry.Store) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*listSchoolsReq)
		if req.Limit < 0 {
			return nil, fmt.Errorf("limite inválido: %d", req.Limit)
		}
		schools := store.Schools()
		if req.Lat != 0 && req.Lng != 0 {
			schools = registry.Nearest(schools, req.Lat, req.Lng)
		}
		if req.Limit > 0 && len(schools) > req.Limit {
			schools = schools[:req.Limit]
		}
		return schoolsResponse{Schools: schools}, nil
	}
}

func statsEndpoint(store *registry.Store) kit.Endpoint {
	return func(_ context.Context, _ any) (any, error) {
		return store.Aggregate(), nil
	}
}

// tracing stamps each call with a request id.
func tracing() kit.Middleware {
	return func(next kit.Endpoint) kit.Endpoint {
		return func(ctx context.Context, request any) (any, error) {
			return next(kit.WithRequestID(ctx, uuid.NewString()), request)
		}
	}
}

// logging records one line per endpoint call, whatever the transport.
func logging(logger *slog.Logger, name string) kit.Middleware {
	return func(next kit.Endpoint) kit.Endpoint {
		return func(ctx context.Context, request any) (any, error) {
			start := time.Now()
			resp, err := next(ctx, request)
			logger.Debug("endpoint handled",
				"endpoint", name,
				"transport", kit.GetTransport(ctx),
				"request_id", kit.GetRequestID(ctx),
				"duration", time.Since(start),
				"error", err)
			return resp, err
		}
	}
}

// instrument is the middleware stack applied to every shared endpoint.
func instrument(logger *slog.Logger, name string) kit.Middleware {
	return kit.Chain(tracing(), logging(logger, name))
}
