package eventbus

import (
	"os"
)

// GetBrokers returns Kafka bootstrap servers from env KAFKA_BOOTSTRAP_SERVERS
func GetBrokers() string {
	v := os.Getenv("KAFKA_BOOTSTRAP_SERVERS")
	if v == "" {
		panic("KAFKA_BOOTSTRAP_SERVERS environment variable is required")
	}
	return v
}

// GetGroupID returns consumer group id from env KAFKA_GROUP_ID
func GetGroupID() string {
	v := os.Getenv("KAFKA_GROUP_ID")
	if v == "" {
		panic("KAFKA_GROUP_ID environment variable is required")
	}
	return v
}

// GroupIDFor는 서비스별 컨슈머 그룹 ID를 만듭니다.
// 같은 토픽을 구독하는 서비스들이 하나의 그룹을 공유하면 파티션이 나뉘어
// 각 서비스가 메시지의 일부만 보게 되므로, 서비스마다 그룹을 분리합니다.
func GroupIDFor(service string) string {
	return GetGroupID() + "-" + service
}
