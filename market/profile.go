package market

import (
	"bytes"
	"context"
)

// Profile is the authenticated user's account data.
type Profile struct {
	ID           string `json:"id"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	ProfileImage *Image `json:"profileImage,omitempty"`
}

type profileResponse struct {
	Data struct {
		User Profile `json:"user"`
	} `json:"data"`
}

// GetProfile fetches the authenticated user's profile.
func (c *Client) GetProfile(ctx context.Context) (Profile, error) {
	result := &profileResponse{}

	_, err := handleError(c.req(ctx, result).
		Get("/api/user/profile"))

	return result.Data.User, err
}

// ProfileInput is the editable subset of the profile form.
type ProfileInput struct {
	FirstName    string
	LastName     string
	ProfileImage []byte
	ImageName    string
}

// UpdateProfile updates name fields and, optionally, the profile image.
func (c *Client) UpdateProfile(ctx context.Context, input ProfileInput) (Profile, error) {
	result := &profileResponse{}

	req := c.req(ctx, result).
		SetMultipartFormData(map[string]string{
			"firstName": input.FirstName,
			"lastName":  input.LastName,
		})

	if len(input.ProfileImage) > 0 {
		name := input.ImageName
		if name == "" {
			name = "profile.jpg"
		}
		req.SetFileReader("profileImage", name, bytes.NewReader(input.ProfileImage))
	}

	_, err := handleError(req.Put("/api/user/profile"))

	return result.Data.User, err
}
