// Package oauth provides the identity-provider adapter for the authorization
// code and implicit-token flows.
//
// The Provider interface covers the three provider-side operations the rest of
// authgate needs: generating the authorization URL, exchanging an authorization
// code for a token, and fetching the signed-in user's profile. Two
// implementations ship with the package:
//
//   - GoogleProvider performs real exchanges against Google's token endpoint
//     and reads the userinfo endpoint.
//   - MockProvider is an explicit local stand-in: a deterministic exchange and
//     a synthesized profile, for demos and offline development. It never talks
//     to the network.
//
// # Usage
//
//	provider, err := oauth.NewGoogleProvider(oauth.GoogleConfig{
//		ClientID:     os.Getenv("GOOGLE_OAUTH_CLIENT_ID"),
//		ClientSecret: os.Getenv("GOOGLE_OAUTH_CLIENT_SECRET"),
//		RedirectURL:  "com.example.app:/oauth2redirect",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	url := provider.AuthCodeURL("random-state-string")
//	// ... user completes consent in the browser ...
//	token, err := provider.Exchange(ctx, code, "")
//	profile, err := provider.FetchProfile(ctx, token)
//
// Errors returned by FetchProfile that match ErrUnauthorized indicate the
// access token itself is invalid; callers are expected to discard the stored
// session in that case. Other errors are transient and leave the session
// alone.
package oauth
