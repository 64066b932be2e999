package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jakelazaroff/activitypub-starter-kit/activitypub"
	"github.com/jakelazaroff/activitypub-starter-kit/db"
	"github.com/jakelazaroff/activitypub-starter-kit/util"
	"github.com/jakelazaroff/activitypub-starter-kit/web"
)

func main() {

	conf, err := util.ReadConf()
	if err != nil {
		log.Fatalln(err)
	}

	fmt.Println("Configuration: ")
	fmt.Println(util.PrettyPrint(conf))

	database, err := db.Open(util.ResolveFilePath(conf.Conf.DatabasePath))
	if err != nil {
		log.Fatalln(err)
	}

	keys, err := util.LoadOrCreateKeypair(conf)
	if err != nil {
		log.Fatalln(err)
	}

	privateKey, err := activitypub.ParsePrivateKey(keys.Private)
	if err != nil {
		log.Fatalln(err)
	}

	resolver := activitypub.NewResolver(nil, time.Hour)
	signer := activitypub.NewSigner(resolver, privateKey, conf.ActorIRI(), nil)
	verifier := activitypub.NewVerifier(resolver)
	relationships := activitypub.NewRelationships(database, signer, conf.ActorIRI(), conf.BaseURL())
	broadcaster := activitypub.NewBroadcaster(signer, database)

	app := &web.App{
		Conf:          conf,
		DB:            database,
		Verifier:      verifier,
		Relationships: relationships,
		Broadcaster:   broadcaster,
		PublicKeyPem:  keys.Public,
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", conf.Conf.Host, conf.Conf.HttpPort),
		Handler: web.NewRouter(app),
	}

	startServing(srv, database)
}

func startServing(srv *http.Server, database *db.DB) {
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	log.Printf("%s listening on %s", util.GetNameAndVersion(), srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalln(err)
		}
	}()

	<-done
	log.Println("Stopping server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalln(err)
	}
	database.Close()
}
