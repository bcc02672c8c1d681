package main

import (
	"context"
	"log"
	"net/http"

	"flowplan/account"
	"flowplan/agent"
	"flowplan/bizerror"
	"flowplan/common"
	"flowplan/credential"
	"flowplan/domain"
	"flowplan/domain/run"
	"flowplan/domain/template"
	"flowplan/event"
	"flowplan/infra/tracing"
	"flowplan/persistence"
	"flowplan/session"
	"flowplan/sessions"

	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("service start")

	closer, err := tracing.InitJaegerTracer(common.GetServiceName())
	if err != nil {
		log.Printf("jaeger tracer not started: %v\n", err)
	} else {
		defer closer.Close()
	}

	dbConfig, err := persistence.ParseDatabaseConfigFromEnv()
	if err != nil {
		log.Fatalf("parse database config failed %v\n", err)
	}

	// create database (no conflict)
	if dbConfig.DriverType == "mysql" {
		if err := persistence.PrepareMysqlDatabase(dbConfig.DriverArgs); err != nil {
			log.Fatalf("failed to prepare database %v\n", err)
		}
	}

	// connect database
	ds := &persistence.DataSourceManager{DatabaseConfig: dbConfig}
	if err := ds.Start(); err != nil {
		log.Fatalf("database connection failed %v\n", err)
	}
	defer ds.Stop()
	persistence.ActiveDataSourceManager = ds

	// database migration (race condition)
	err = ds.GormDB(context.Background()).AutoMigrate(&account.User{}, &credential.ApiKeyRecord{},
		&domain.Template{}, &domain.TemplateNode{}, &domain.Workflow{}, &domain.WorkflowItem{},
		&event.EventRecord{}).Error
	if err != nil {
		log.Fatalf("database migration failed %v\n", err)
	}

	if err := account.BootstrapAdminUser(); err != nil {
		log.Fatalf("failed to bootstrap admin user %v\n", err)
	}

	engine := gin.Default()
	engine.Use(bizerror.ErrorHandling(), tracing.TracingIngress())
	engine.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "flowplan")
	})

	sessions.RegisterSessionsHandler(engine)
	sessions.RegisterSessionHandler(engine, session.SimpleAuthFilter())
	template.RegisterTemplatesRestAPI(engine, session.SimpleAuthFilter())
	run.RegisterWorkflowsRestAPI(engine, session.SimpleAuthFilter())
	credential.RegisterApiKeyRestAPI(engine, session.SimpleAuthFilter())
	agent.RegisterAgentRestAPI(engine, session.SimpleAuthFilter())

	err = engine.Run(":80")
	if err != nil {
		panic(err)
	}
}
