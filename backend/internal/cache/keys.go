package cache

// 键语义：
// - sessionsKey():  在线会话（ZSet<sessionId, expireAtUnix>，score=expireAt）

const keySessionsZSet = "ramble:sessions"

func sessionsKey() string { return keySessionsZSet }
