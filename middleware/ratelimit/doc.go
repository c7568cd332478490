// Package ratelimit fornece o adapter HTTP (net/http) para o rate limit de janela fixa.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: caso de uso Attempt (janela, incremento, decisão) sem net/http
//   - infra: implementações concretas (memória, Redis, fallback, estatísticas)
//   - ratelimit (este pacote): middleware HTTP + extração do endereço do cliente +
//     tradução da decisão para status/headers
//
// Fluxo no gateway:
//
//   1) Extrai a chave do cliente (header de chave, X-Forwarded-For, X-Real-IP, CF-Connecting-IP)
//   2) Chama application.Service.Attempt para obter a decisão
//   3) Se bloqueado, responde 429 com X-RateLimit-* e Retry-After
//   4) Se permitido, passa pelo ConcurrencyMiddleware (teto de requisições em voo,
//      503 sem vaga) e chega no próximo handler (ex: reverse proxy)
//
// Variáveis de ambiente do binário gateway (cmd/gateway) controlam o comportamento,
// como RATE_LIMIT, RATE_WINDOW, RATE_KEY_PREFIX, REDIS_ADDR e CONCURRENCY_MAX.
package ratelimit
