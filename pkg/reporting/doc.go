// Package reporting publishes thread pool snapshots to Redis.
//
// Each pool is stored as a hash under "<prefix>:<name>" holding the fields of
// threadpool.Stats plus the publishing instance and a timestamp. Every write
// refreshes the key's TTL, so a pool whose process has gone away drops out once
// the TTL passes.
//
//	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	publisher := &reporting.RedisPublisher{Client: rdb, TTL: 30 * time.Second}
//
//	// Publish every 10 seconds through the scheduler.
//	s.Schedule("stats", "*/10 * * * * *", publisher.PublishFunc(pool, "ingest"), scheduler.Options{})
//
// Any redis.UniversalClient works, including cluster and sentinel clients.
package reporting
