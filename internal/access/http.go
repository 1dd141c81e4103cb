package access

import (
	"net"
	"net/http"

	"github.com/narwhalmedia/ottcore/pkg/auth"
)

// Header names read from inbound requests.
const (
	HeaderProfileID   = "X-Profile-ID"
	HeaderCountryCode = "X-Country-Code"
	HeaderCFCountry   = "CF-IPCountry"
)

// RequestFromHTTP collects the viewer inputs from an authenticated request.
// The profile id comes from the profile_id query parameter, then the
// X-Profile-ID header. Country headers are only honoured when trustHeaders is
// set, since clients could otherwise choose their own region.
func RequestFromHTTP(r *http.Request, trustHeaders bool) Request {
	principal, _ := auth.PrincipalFromContext(r.Context())

	req := Request{
		Principal: principal,
		ProfileID: r.URL.Query().Get("profile_id"),
		ClientIP:  clientIP(r),
	}
	if req.ProfileID == "" {
		req.ProfileID = r.Header.Get(HeaderProfileID)
	}
	if trustHeaders {
		req.CountryHint = r.Header.Get(HeaderCountryCode)
		if req.CountryHint == "" {
			req.CountryHint = r.Header.Get(HeaderCFCountry)
		}
	}
	return req
}

// clientIP reads RemoteAddr, which chi's RealIP middleware has already
// rewritten from X-Forwarded-For when present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// HTTPResolver resolves viewers straight from HTTP requests.
type HTTPResolver struct {
	resolver     *Resolver
	trustHeaders bool
}

// NewHTTPResolver wraps resolver for use by HTTP handlers.
func NewHTTPResolver(resolver *Resolver, trustHeaders bool) *HTTPResolver {
	return &HTTPResolver{resolver: resolver, trustHeaders: trustHeaders}
}

// ViewerFromRequest resolves the viewer for an authenticated request.
func (h *HTTPResolver) ViewerFromRequest(r *http.Request, requireProfile bool) (*Viewer, error) {
	return h.resolver.Resolve(r.Context(), RequestFromHTTP(r, h.trustHeaders), requireProfile)
}

// ViewerSource is what HTTP handlers depend on to obtain a viewer.
type ViewerSource interface {
	ViewerFromRequest(r *http.Request, requireProfile bool) (*Viewer, error)
}
