package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/pawclub/pawclub-server/internal/domain"
	"github.com/pawclub/pawclub-server/internal/service"
)

func (s *Server) registerRatingRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getBookRating",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{slug}/rating",
		Summary:     "Get rating",
		Description: "Returns the aggregate paw rating for a book, plus the caller's own vote when authenticated",
		Tags:        []string{"Ratings"},
	}, s.handleGetRating)

	huma.Register(s.api, huma.Operation{
		OperationID: "setBookRating",
		Method:      http.MethodPut,
		Path:        "/api/v1/books/{slug}/rating",
		Summary:     "Set rating",
		Description: "Records the caller's paw rating for a book. Re-rating overwrites the previous vote.",
		Tags:        []string{"Ratings"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSetRating)
}

// === DTOs ===

// RatingResponse contains rating data in API responses.
type RatingResponse struct {
	Slug       string             `json:"slug" doc:"Book slug"`
	UserRating int                `json:"user_rating,omitempty" doc:"Caller's own paw rating (0 if not voted)"`
	Stats      domain.RatingStats `json:"stats" doc:"Aggregate rating"`
}

// RatingOutput wraps the rating response for Huma.
type RatingOutput struct {
	Body RatingResponse
}

// GetRatingInput contains parameters for reading a book's rating.
type GetRatingInput struct {
	Slug string `path:"slug" doc:"Book slug"`
}

// SetRatingRequest is the request body for rating a book.
type SetRatingRequest struct {
	Rating int `json:"rating" validate:"required,gte=1,lte=5" doc:"Paw rating, 1 to 5"`
}

// SetRatingInput wraps the set rating request for Huma.
type SetRatingInput struct {
	Authorization string `header:"Authorization"`
	Slug          string `path:"slug" doc:"Book slug"`
	Body          SetRatingRequest
}

// === Handlers ===

func (s *Server) handleGetRating(ctx context.Context, input *GetRatingInput) (*RatingOutput, error) {
	userID, _ := GetUserID(ctx)

	result, err := s.services.Rating.GetRating(ctx, input.Slug, userID)
	if err != nil {
		return nil, err
	}

	return &RatingOutput{Body: mapRatingResponse(result)}, nil
}

func (s *Server) handleSetRating(ctx context.Context, input *SetRatingInput) (*RatingOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Rating.SetRating(ctx, input.Slug, userID, input.Body.Rating)
	if err != nil {
		return nil, err
	}

	return &RatingOutput{Body: mapRatingResponse(result)}, nil
}

func mapRatingResponse(result *service.RatingResult) RatingResponse {
	return RatingResponse{
		Slug:       result.Slug,
		UserRating: result.UserRating,
		Stats:      result.Stats,
	}
}
