package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"stocktalk/config"
)

// KafkaEventBus는 confluent-kafka-go 라이브러리를 사용한 EventBus 구현체입니다.
type KafkaEventBus struct {
	Producer *kafka.Producer
	Brokers  string
}

// NewKafkaEventBus는 Kafka Producer를 초기화합니다.
func NewKafkaEventBus(brokers string) (*KafkaEventBus, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
		"acks":              "all",
		"retries":           5, // Producer는 일시적인 오류 발생 시 최대 5회 재시도합니다.
	})
	if err != nil {
		return nil, fmt.Errorf("kafka Producer 생성 실패: %w", err)
	}

	// Producer 이벤트를 처리하는 고루틴 (전달 보고서 등)
	go func() {
		for e := range p.Events() {
			switch ev := e.(type) {
			case *kafka.Message:
				if ev.TopicPartition.Error != nil {
					config.Logger.Errorf("메시지 전달 실패 %v: %v", ev.TopicPartition, ev.TopicPartition.Error)
				}
			case kafka.Error:
				config.Logger.Errorf("Kafka 오류: %v", ev)
			}
		}
	}()

	return &KafkaEventBus{
		Producer: p,
		Brokers:  brokers,
	}, nil
}

// Close는 Producer를 안전하게 종료합니다.
func (k *KafkaEventBus) Close() {
	if k.Producer != nil {
		// 5초 동안 남은 메시지를 모두 플러시합니다.
		if remaining := k.Producer.Flush(5000); remaining > 0 {
			config.Logger.Warnf("플러시 후에도 %d개의 메시지가 남아 있습니다.\n", remaining)
		}
		k.Producer.Close()
		config.Logger.Info("Kafka Producer 종료.")
	}
}

// Publish는 지정된 토픽에 이벤트를 발행합니다.
func (k *KafkaEventBus) Publish(ctx context.Context, topic string, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("이벤트 마샬링 실패: %w", err)
	}

	deliveryChan := make(chan kafka.Event, 1)
	defer close(deliveryChan)

	// 메시지 생성 및 전송
	err = k.Producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Value:          data,
		Key:            []byte(event.ID),
	}, deliveryChan)
	if err != nil {
		return fmt.Errorf("메시지 발행 실패: %w", err)
	}

	// 전달 성공/실패 대기
	select {
	case ev := <-deliveryChan:
		m := ev.(*kafka.Message)
		if m.TopicPartition.Error != nil {
			return fmt.Errorf("메시지 전달 실패: %w", m.TopicPartition.Error)
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	return nil
}

// Subscribe는 기본 토픽을 구독하고 이벤트 타입별 핸들러를 실행합니다.
// 봉투의 Type 필드로 디스패치하므로, HandlerMap에 없는 타입은 이 서비스가
// 다루지 않는 이벤트로 간주하고 커밋 후 건너뜁니다.
func (k *KafkaEventBus) Subscribe(ctx context.Context, groupID string, topic Topic, handlers HandlerMap) error {
	c, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":             k.Brokers,
		"group.id":                      groupID, // 서비스별 컨슈머 그룹 ID
		"auto.offset.reset":             "earliest",
		"enable.auto.commit":            false, // 재시도 로직을 위해 수동 커밋 사용
		"partition.assignment.strategy": "range",
	})
	if err != nil {
		return fmt.Errorf("kafka Consumer 생성 실패: %w", err)
	}
	defer c.Close()

	if err := c.SubscribeTopics([]string{topic.Base()}, nil); err != nil {
		return fmt.Errorf("토픽 구독 실패 %s: %w", topic.Base(), err)
	}

	config.Logger.Infof("컨슈머 (%s) 시작됨. 구독 토픽: %s", groupID, topic.Base())

	for {
		select {
		case <-ctx.Done():
			config.Logger.Infof("컨슈머 (%s) 종료 중.", groupID)
			return ctx.Err()
		default:
			msg, err := c.ReadMessage(100 * time.Millisecond)
			if err != nil {
				if kerr, ok := err.(kafka.Error); ok && kerr.Code() == kafka.ErrTimedOut {
					continue // 타임아웃은 정상적인 상황입니다.
				}
				continue
			}

			var evt Event
			if err := json.Unmarshal(msg.Value, &evt); err != nil {
				config.Logger.Errorf("토픽 %s의 이벤트 페이로드 오류: %v. 메시지를 건너뛰고 커밋합니다.\n", *msg.TopicPartition.Topic, err)
				c.CommitMessage(msg)
				continue
			}

			// 이벤트의 최대 재시도 기본값 보정 (설정되지 않았거나 범위를 초과한 경우)
			if evt.MaxRetry <= 0 || evt.MaxRetry > len(RetryDelays) {
				evt.MaxRetry = len(RetryDelays)
			}

			handler, registered := handlers[evt.Type]
			if !registered {
				// 이 서비스가 구독하지 않는 타입. 재시도 사다리를 태우지 않습니다.
				config.Logger.Debugf("이벤트 %s(%s)는 처리 대상이 아님. 커밋 후 건너뜀.", evt.ID, evt.Type)
				c.CommitMessage(msg)
				continue
			}

			if evt.Retry > 0 {
				config.Logger.Infof("이벤트 %s(%s) 처리 시작 (재시도 %d/%d)", evt.ID, evt.Type, evt.Retry, evt.MaxRetry)
			} else {
				config.Logger.Debugf("이벤트 %s(%s) 처리 시작", evt.ID, evt.Type)
			}

			if err := handler(ctx, evt); err != nil {
				if schedErr := k.scheduleRetryOrDLQ(ctx, topic, evt, err); schedErr != nil {
					config.Logger.Errorf("이벤트 %s 재시도 예약 실패: %v. 오프셋 커밋 안함.", evt.ID, schedErr)
					continue // 커밋하지 않으면 메시지가 재전달됩니다.
				}
			}

			// 성공 또는 재시도/DLQ 발행 성공 시 오프셋 커밋
			if _, err := c.CommitMessage(msg); err != nil {
				config.Logger.Errorf("오프셋 커밋 오류: %v", err)
			}
		}
	}
}

// scheduleRetryOrDLQ는 실패한 이벤트를 다음 지연 토픽에 예약하거나,
// 재시도 예산이 소진된 경우 DLQ로 보냅니다. 발행 자체가 실패하면 오류를
// 반환하며, 호출 측은 커밋하지 않고 메시지를 재처리해야 합니다.
func (k *KafkaEventBus) scheduleRetryOrDLQ(ctx context.Context, topic Topic, evt Event, cause error) error {
	evt.LastError = cause.Error()
	next := evt.Retry + 1

	retryTopic, err := topic.GetRetryTopic(next)
	if errors.Is(err, ErrMaxRetryExceeded) || next > evt.MaxRetry {
		config.Logger.Errorf("이벤트 %s의 재시도 예산 소진. DLQ %s로 전송. 최종 오류: %s", evt.ID, topic.DLQ(), cause.Error())
		return k.Publish(ctx, topic.DLQ(), evt)
	}
	if err != nil {
		return err
	}

	evt.Retry = next
	config.Logger.Warnf("이벤트 %s 처리 실패. 재시도 %d/%d를 토픽 %s에 예약.", evt.ID, evt.Retry, evt.MaxRetry, retryTopic)
	return k.Publish(ctx, retryTopic, evt)
}

// StartRetryReinjector는 모든 재시도 토픽을 구독하고 지연 시간이 지난
// 메시지를 기본 토픽으로 재발행(re-publish)합니다.
func (k *KafkaEventBus) StartRetryReinjector(ctx context.Context, groupID string, topic Topic) error {
	c, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":             k.Brokers,
		"group.id":                      groupID, // 전용 재주입 그룹 ID
		"auto.offset.reset":             "earliest",
		"enable.auto.commit":            false,
		"partition.assignment.strategy": "range",
	})
	if err != nil {
		return fmt.Errorf("kafka 재시도 재주입기 생성 실패: %w", err)
	}
	defer c.Close()

	retryTopics := topic.GetRetryTopics()
	if err := c.SubscribeTopics(retryTopics, nil); err != nil {
		return fmt.Errorf("재시도 토픽 구독 실패 %v: %w", retryTopics, err)
	}

	config.Logger.Infof("재시도 재주입 컨슈머 (%s) 시작됨. 구독 토픽: %s", groupID, strings.Join(retryTopics, ", "))

	for {
		select {
		case <-ctx.Done():
			config.Logger.Info("재시도 재주입 컨슈머 종료 중.")
			return ctx.Err()
		default:
			msg, err := c.ReadMessage(100 * time.Millisecond)
			if err != nil {
				if kerr, ok := err.(kafka.Error); ok {
					if kerr.Code() == kafka.ErrTimedOut {
						continue
					}
					if kerr.IsFatal() {
						return fmt.Errorf("재시도 재주입 컨슈머 치명적 오류: %w", err)
					}
				}
				config.Logger.Errorf("재시도 재주입 컨슈머 ReadMessage 오류: %v", err)
				time.Sleep(500 * time.Millisecond)
				continue
			}

			if done, commit := k.reinjectOne(ctx, topic, msg); done {
				if commit {
					if _, err := c.CommitMessage(msg); err != nil {
						config.Logger.Errorf("재주입 후 커밋 오류: %v\n", err)
					}
				}
			}
		}
	}
}

// reinjectOne은 지연 토픽의 메시지 하나를 처리합니다.
// 반환값 done이 false면 아직 지연 시간이 지나지 않아 커밋 없이 재전달을
// 기다리는 경우이고, commit은 오프셋을 커밋해도 되는지를 나타냅니다.
func (k *KafkaEventBus) reinjectOne(ctx context.Context, topic Topic, msg *kafka.Message) (done, commit bool) {
	topicName := *msg.TopicPartition.Topic
	delayDur, ok := ParseRetryFromTopicName(topicName)
	if !ok {
		config.Logger.Errorf("재시도 토픽 이름 파싱 실패: %s. 메시지를 건너뛰고 커밋합니다.", topicName)
		return true, true
	}

	readyAt := msg.Timestamp.Add(delayDur)
	now := time.Now()
	if now.Before(readyAt) {
		remaining := readyAt.Sub(now)
		// 전체 컨슈머 스레드 블로킹을 피하기 위해 아주 짧게만 대기
		sleepDur := remaining
		if sleepDur > 500*time.Millisecond {
			sleepDur = 500 * time.Millisecond
		} else if sleepDur < 50*time.Millisecond {
			sleepDur = 50 * time.Millisecond
		}
		time.Sleep(sleepDur)
		// 오프셋 커밋 없이 재시도 (메시지는 다시 전달됨)
		return false, false
	}

	var evt Event
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		config.Logger.Errorf("재시도 토픽 %s의 이벤트 페이로드 오류: %v. 메시지를 건너뛰고 커밋합니다.\n", topicName, err)
		return true, true
	}

	config.Logger.Infof("이벤트 %s(%s)를 %s에서 %s로 재주입. (재시도: %d)",
		evt.ID, evt.Type, topicName, topic.Base(), evt.Retry)

	if err := k.Publish(ctx, topic.Base(), evt); err != nil {
		config.Logger.Errorf("이벤트 %s 재주입 실패: %v. 오프셋 커밋 안함.\n", evt.ID, err)
		return true, false // 재발행 실패 시 메시지 재처리 시도
	}

	return true, true
}
