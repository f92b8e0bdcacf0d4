// Package dnstest runs an in-process DNS server for tests.
package dnstest

import (
	"net"
	"strings"
	"testing"

	"github.com/miekg/dns"
)

// Start serves the given resource records over UDP on a loopback port until
// the test ends and returns the server address.
// Records use the zone file syntax, e.g. "example.test. 60 IN A 127.0.0.1".
// Names without records get NXDOMAIN, known names without a matching type get an empty answer.
func Start(tb testing.TB, records ...string) string {
	tb.Helper()

	rrs := make([]dns.RR, 0, len(records))
	for _, s := range records {
		rr, err := dns.NewRR(s)
		if err != nil {
			tb.Fatalf("dns.NewRR(%q) error = %v, want nil", s, err)
		}
		rrs = append(rrs, rr)
	}

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		tb.Fatalf("net.ListenPacket() error = %v, want nil", err)
	}

	started := make(chan struct{})
	srv := &dns.Server{
		PacketConn: pc,
		Handler: dns.HandlerFunc(func(w dns.ResponseWriter, req *dns.Msg) {
			resp := new(dns.Msg)
			resp.SetReply(req)
			known := false
			for _, q := range req.Question {
				for _, rr := range rrs {
					h := rr.Header()
					if !strings.EqualFold(h.Name, q.Name) {
						continue
					}
					known = true
					if h.Rrtype == q.Qtype {
						resp.Answer = append(resp.Answer, rr)
					}
				}
			}
			if !known {
				resp.Rcode = dns.RcodeNameError
			}
			w.WriteMsg(resp) //nolint:errcheck
		}),
		NotifyStartedFunc: func() { close(started) },
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		srv.ActivateAndServe() //nolint:errcheck
	}()
	<-started

	tb.Cleanup(func() {
		srv.Shutdown() //nolint:errcheck
		<-done
	})
	return pc.LocalAddr().String()
}
