package ratelimit

import (
	"net"
	"net/http"
	"strings"
)

const (
	HeaderForwardedFor   = "X-Forwarded-For"
	HeaderRealIP         = "X-Real-IP"
	HeaderCFConnectingIP = "CF-Connecting-IP"

	// UnknownClient é a chave quando nenhum header de endereço está presente.
	UnknownClient = "unknown"
)

// ClientAddress extrai o endereço do cliente dos headers de proxy.
//
// Ordem (o primeiro header presente vence):
//  1. X-Forwarded-For: primeiro item da lista, sem espaços
//  2. X-Real-IP: como veio
//  3. CF-Connecting-IP: como veio
//
// Sem nenhum deles retorna UnknownClient. Não valida a sintaxe do endereço;
// um header presente com valor vazio retorna "".
func ClientAddress(r *http.Request) string {
	if v, ok := headerValue(r.Header, HeaderForwardedFor); ok {
		first, _, _ := strings.Cut(v, ",")
		return strings.TrimSpace(first)
	}
	if v, ok := headerValue(r.Header, HeaderRealIP); ok {
		return v
	}
	if v, ok := headerValue(r.Header, HeaderCFConnectingIP); ok {
		return v
	}
	return UnknownClient
}

// headerValue distingue header ausente de header vazio (Header.Get não distingue).
func headerValue(h http.Header, name string) (string, bool) {
	vals, ok := h[http.CanonicalHeaderKey(name)]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

func remoteHost(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	host, _, err := net.SplitHostPort(addr)
	if err == nil && host != "" {
		return host
	}
	return addr
}
