package lib

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	storeWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "talentnest",
		Name:      "store_writes_total",
		Help:      "Rows written through gorm, by table, operation and result.",
	}, []string{"table", "op", "result"})

	connectionCommands = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "talentnest",
		Name:      "connection_commands_total",
		Help:      "Connection lifecycle commands, by command and outcome.",
	}, []string{"command", "outcome"})
)

// RecordCommand counts one lifecycle command outcome
func RecordCommand(command, outcome string) {
	connectionCommands.WithLabelValues(command, outcome).Inc()
}

// MetricsPlugin is a gorm plugin that counts writes after create, update and delete
type MetricsPlugin struct{}

func (p *MetricsPlugin) Name() string {
	return "MetricsPlugin"
}

// Initialize registers the after-write callbacks
func (p *MetricsPlugin) Initialize(db *gorm.DB) error {
	if err := db.Callback().Create().After("gorm:create").Register("metrics:after_create", p.observe("create")); err != nil {
		return err
	}
	if err := db.Callback().Update().After("gorm:update").Register("metrics:after_update", p.observe("update")); err != nil {
		return err
	}
	if err := db.Callback().Delete().After("gorm:delete").Register("metrics:after_delete", p.observe("delete")); err != nil {
		return err
	}
	Log().Debug("Metrics hooks registered in GORM")
	return nil
}

func (p *MetricsPlugin) observe(op string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		statement := db.Statement
		if statement == nil || statement.Schema == nil {
			return
		}
		table := statement.Schema.Table

		if db.Error != nil {
			storeWrites.WithLabelValues(table, op, "error").Inc()
			Log().Debug("store write failed", zap.String("table", table), zap.String("op", op), zap.Error(db.Error))
			return
		}
		// A conditional update that matched nothing is not a write.
		if db.RowsAffected == 0 {
			storeWrites.WithLabelValues(table, op, "noop").Inc()
			return
		}
		storeWrites.WithLabelValues(table, op, "ok").Add(float64(db.RowsAffected))
	}
}
