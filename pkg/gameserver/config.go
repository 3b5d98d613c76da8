package gameserver

import "time"

type Config struct {
	MaxClients   int
	MinClients   int
	TickRate     int
	SnapshotRate int
	Mode         string
	Map          string
	// Zero means the default delay.
	RespawnDelay time.Duration
}

func (c *Config) respawnDelay() time.Duration {
	if c.RespawnDelay > 0 {
		return c.RespawnDelay
	}
	return defaultRespawnDelay
}

func (c *Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}

// SnapshotEvery is the number of simulation ticks between world snapshots.
func (c *Config) SnapshotEvery() uint64 {
	if c.SnapshotRate <= 0 || c.SnapshotRate >= c.TickRate {
		return 1
	}
	return uint64(c.TickRate / c.SnapshotRate)
}
