package handler

import "github.com/skyads/marketplace/internal/core/ports"

func toUserResponse(p *ports.UserProfile) userResponse {
	return userResponse{
		ID:        p.ID,
		Email:     p.Email,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Phone:     p.Phone,
		Role:      p.Role,
		Image:     p.Image,
	}
}

func toAdResponse(a ports.AdSummary) adResponse {
	return adResponse{
		Author: a.AuthorID,
		Image:  a.Image,
		PK:     a.ID,
		Price:  a.Price,
		Title:  a.Title,
	}
}

func toExtendedAdResponse(a *ports.AdDetail) extendedAdResponse {
	return extendedAdResponse{
		PK:              a.ID,
		Author:          a.AuthorID,
		AuthorFirstName: a.AuthorFirstName,
		AuthorLastName:  a.AuthorLastName,
		Description:     a.Description,
		Email:           a.Email,
		Image:           a.Image,
		Phone:           a.Phone,
		Price:           a.Price,
		Title:           a.Title,
	}
}

func toCommentResponse(v ports.CommentView) commentResponse {
	return commentResponse{
		Author:          v.AuthorID,
		AuthorImage:     v.AuthorImage,
		AuthorFirstName: v.AuthorFirstName,
		CreatedAt:       v.CreatedAt,
		PK:              v.ID,
		Text:            v.Text,
	}
}

// toCollection maps every item and keeps Results non-nil so empty
// collections render as [].
func toCollection[V any, R any](c *ports.Collection[V], fn func(V) R) collectionResponse[R] {
	out := collectionResponse[R]{Count: c.Count, Results: make([]R, 0, len(c.Results))}
	for _, v := range c.Results {
		out.Results = append(out.Results, fn(v))
	}
	return out
}
