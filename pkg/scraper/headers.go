package scraper

import "net/http"

// addBrowserHeaders makes requests look like the provider's own web client,
// the public API rejects bare clients
func addBrowserHeaders(req *http.Request) {
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Origin", "https://ground.news")
	req.Header.Set("Referer", "https://ground.news/")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/137.0.0.0 Safari/537.36")
	req.Header.Set("X-Gn-V", "web")
}
