package session

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// GoogleProfiles looks profiles up with the Google userinfo endpoint.
// Endpoint and Transport are only set in tests.
type GoogleProfiles struct {
	Endpoint  string
	Transport http.RoundTripper
}

func (g GoogleProfiles) FetchProfile(ctx context.Context, token string) (*Profile, error) {
	base := g.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	opts := []option.ClientOption{
		option.WithHTTPClient(&http.Client{
			Transport: &oauth2.Transport{
				Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
				Base:   base,
			},
		}),
	}
	if g.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(g.Endpoint))
	}

	service, err := oauth2api.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create userinfo service: %w", err)
	}

	info, err := service.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch userinfo: %w", err)
	}

	return &Profile{
		ID:         info.Id,
		Email:      info.Email,
		Name:       info.Name,
		GivenName:  info.GivenName,
		FamilyName: info.FamilyName,
		Picture:    info.Picture,
	}, nil
}
