package gate

import "strings"

// Canonical routes owned by this service. Path strings are the
// contract; handlers and the interceptor both resolve against these,
// never against ad hoc string literals.
const (
	RouteLogin              = "/auth/login"
	RouteRegister           = "/auth/register"
	RouteCallback           = "/auth/callback"
	RouteHome               = "/home"
	RouteOnboarding         = "/onboarding"
	RouteOnboardingAvatar   = "/onboarding/avatar"
	RouteOnboardingName     = "/onboarding/name"
	RouteOnboardingComplete = "/onboarding/complete"
	RouteProfile            = "/profile"
	RouteSpark              = "/spark"
	RouteTalk               = "/talk"
	RouteGoal               = "/goal"
	RouteCountdown          = "/countdown"
)

// OnboardingEntry is where brand-new users (no profile row yet) land.
// Avatar-first is the canonical step order.
const OnboardingEntry = RouteOnboardingAvatar

// Class partitions every routed path; Decide branches on the class,
// never on raw prefixes.
type Class int

const (
	ClassPublic Class = iota
	ClassAuth
	ClassOnboarding
	ClassProtected
)

func (c Class) String() string {
	switch c {
	case ClassAuth:
		return "auth"
	case ClassOnboarding:
		return "onboarding"
	case ClassProtected:
		return "protected"
	default:
		return "public"
	}
}

var protectedPrefixes = []string{
	RouteHome,
	RouteProfile,
	RouteSpark,
	RouteTalk,
	RouteGoal,
	RouteCountdown,
}

// GuardedPrefixes is the path matcher the interceptor applies to.
// Static assets and API routes sit outside it by configuration.
var GuardedPrefixes = append([]string{"/auth", RouteOnboarding}, protectedPrefixes...)

// Classify maps a request path to its route class.
func Classify(path string) Class {
	switch {
	case hasPathPrefix(path, "/auth"):
		return ClassAuth
	case hasPathPrefix(path, RouteOnboarding):
		return ClassOnboarding
	}
	for _, p := range protectedPrefixes {
		if hasPathPrefix(path, p) {
			return ClassProtected
		}
	}
	return ClassPublic
}

// Guarded reports whether the path is inside the interceptor's matcher
// set at all.
func Guarded(path string) bool {
	if path == "/" {
		return true
	}
	for _, p := range GuardedPrefixes {
		if hasPathPrefix(path, p) {
			return true
		}
	}
	return false
}

// hasPathPrefix matches on path segment boundaries: /sparkle is not
// under /spark.
func hasPathPrefix(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}
