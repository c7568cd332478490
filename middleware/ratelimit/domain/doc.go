// Package domain define contratos e tipos de domínio para o rate limit de janela fixa.
//
// Este pacote não depende de net/http nem de implementações concretas.
// CounterStore é o ponto de troca entre memória e Redis; Decision é o que
// a camada application devolve para quem chama.
package domain
