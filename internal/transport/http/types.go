package http

import "quiz-results-service/internal/domain"

type userResponse struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Admin    bool   `json:"admin"`
	Initials string `json:"initials"`
}

func toUserResponse(u domain.User) userResponse {
	return userResponse{
		Email:    u.Email,
		Name:     u.Name,
		Admin:    u.Admin,
		Initials: u.Initials(),
	}
}

func toRawResults(results []domain.Result) []domain.RawResult {
	out := make([]domain.RawResult, 0, len(results))
	for _, r := range results {
		out = append(out, domain.FromResult(r))
	}
	return out
}
