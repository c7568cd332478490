// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - MemoryStore: contador de janela fixa em memória (mutex)
//   - RedisStore: contador distribuído (INCR + PEXPIREAT em MULTI/EXEC)
//   - FallbackStore: Redis com queda para memória em caso de erro
//   - *StatsStore: estatísticas de decisões (memória, Redis, Prometheus)
//   - ChanPool: semáforo do teto de concorrência
package infra
