// Package application contém o caso de uso do rate limit de janela fixa.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: Service.Attempt(ctx, "10.0.0.1", WithLimit(2)) retorna uma Decision
// (allowed + limit/remaining/reset).
package application
