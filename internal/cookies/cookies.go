// Package cookies reads Netscape cookie files, the format yt-dlp and
// gallery-dl accept with --cookies.
package cookies

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const httpOnlyPrefix = "#HttpOnly_"

// Parse reads cookies in Netscape format. Malformed lines are skipped.
func Parse(r io.Reader) ([]*http.Cookie, error) {
	var cookies []*http.Cookie

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")

		httpOnly := false
		if strings.HasPrefix(line, httpOnlyPrefix) {
			line = strings.TrimPrefix(line, httpOnlyPrefix)
			httpOnly = true
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) != 7 {
			continue
		}

		c := &http.Cookie{
			Domain:   fields[0],
			Path:     fields[2],
			Secure:   strings.EqualFold(fields[3], "TRUE"),
			Name:     fields[5],
			Value:    fields[6],
			HttpOnly: httpOnly,
		}
		if expires, err := strconv.ParseInt(fields[4], 10, 64); err == nil && expires > 0 {
			c.Expires = time.Unix(expires, 0)
		}
		cookies = append(cookies, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read cookies: %w", err)
	}
	return cookies, nil
}

// Load parses the cookie file at path.
func Load(path string) ([]*http.Cookie, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cookies: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Lookup returns the value of the named cookie set for domain or any of its
// subdomains.
func Lookup(cookies []*http.Cookie, domain, name string) (string, bool) {
	for _, c := range cookies {
		if c.Name == name && matchesDomain(c.Domain, domain) {
			return c.Value, true
		}
	}
	return "", false
}

func matchesDomain(cookieDomain, domain string) bool {
	host := strings.TrimPrefix(cookieDomain, ".")
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// Jar builds a cookie jar holding cookies, for plain HTTP clients.
func Jar(cookies []*http.Cookie) (http.CookieJar, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	byHost := make(map[string][]*http.Cookie)
	for _, c := range cookies {
		host := strings.TrimPrefix(c.Domain, ".")
		byHost[host] = append(byHost[host], c)
	}
	for host, cs := range byHost {
		jar.SetCookies(&url.URL{Scheme: "https", Host: host, Path: "/"}, cs)
	}
	return jar, nil
}
