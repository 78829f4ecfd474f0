// Package browser models the page environment the tracking layer runs
// against: the visitor's browsing context, the HTML document loader scripts
// are injected into, and the window holding the shared data layer and the
// global functions third-party scripts install.
package browser
