package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"github.com/centralshop/storebackend/lib/myhttpclient"
	"github.com/centralshop/storebackend/lib/mypublisher"
	"github.com/centralshop/storebackend/lib/mypubsub"
	"github.com/centralshop/storebackend/lib/myqueue"
	"github.com/centralshop/storebackend/lib/mysequence"
	"github.com/centralshop/storebackend/lib/mystore"
	"github.com/centralshop/storebackend/lib/mytime"
	"github.com/centralshop/storebackend/lib/myuuid"
	"github.com/centralshop/storebackend/services/backoffice"
	"github.com/centralshop/storebackend/services/cart"
	"github.com/centralshop/storebackend/services/cart/cartevents"
	"github.com/centralshop/storebackend/services/catalog"
	"github.com/centralshop/storebackend/services/content"
	"github.com/centralshop/storebackend/services/fallback"
	"github.com/centralshop/storebackend/services/payments"
	"github.com/centralshop/storebackend/services/resilience"
)

func main() {
	c := context.Background()

	router := mux.NewRouter()

	nower := mytime.RealNower{}
	uuider := myuuid.RealUUIDer{}
	httpSender := myhttpclient.New()

	queue, queueCleanup, err := myqueue.New(c)
	if err != nil {
		log.Fatalf("Error creating task queue: %s", err)
	}
	defer queueCleanup()

	pubsub, pubsubCleanup, err := mypubsub.New(c)
	if err != nil {
		log.Fatalf("Error creating pubsub: %s", err)
	}
	defer pubsubCleanup()

	publisher, publisherCleanup, err := mypublisher.New(c, pubsub, queue, nower)
	if err != nil {
		log.Fatalf("Error creating publisher: %s", err)
	}
	defer publisherCleanup()
	publisher.RegisterEndpoints(c, router)

	err = publisher.CreateTopic(c, cartevents.TopicName)
	if err != nil {
		log.Fatalf("Error creating topic %s: %s", cartevents.TopicName, err)
	}

	invoker := resilience.NewInvoker(nower)

	catalogClient := catalog.NewClient(envOrDefault("CATALOG_SERVICE_URL", "http://localhost:8081"), httpSender)
	paymentsClient := payments.NewClient(envOrDefault("PAYMENTS_SERVICE_URL", "http://localhost:8080"), httpSender)

	snapshotStore, snapshotCleanup, err := mystore.New[fallback.Snapshot](c)
	if err != nil {
		log.Fatalf("Error creating snapshot store: %s", err)
	}
	defer snapshotCleanup()
	fallbackStore := fallback.NewStore(snapshotStore, nower)

	contentService := content.NewWebService(catalogClient, invoker, fallbackStore, nower)
	err = contentService.RegisterEndpoints(c, router)
	if err != nil {
		log.Fatalf("Error registering content endpoints: %s", err)
	}

	paymentStore, paymentCleanup, err := mystore.New[payments.PaymentRecord](c)
	if err != nil {
		log.Fatalf("Error creating payment store: %s", err)
	}
	defer paymentCleanup()

	paymentsService := payments.NewWebService(paymentStore, pubsub, nower, uuider)
	err = paymentsService.RegisterEndpoints(c, router)
	if err != nil {
		log.Fatalf("Error registering payments endpoints: %s", err)
	}

	recordStore, recordCleanup, err := mystore.New[backoffice.RequestRecord](c)
	if err != nil {
		log.Fatalf("Error creating backoffice record store: %s", err)
	}
	defer recordCleanup()

	replicator := backoffice.NewReplicator(queue, recordStore, uuider)
	backofficeService := backoffice.NewWebService(envOrDefault("BACKOFFICE_URL", "http://localhost:8082"), httpSender, recordStore, queue)
	err = backofficeService.RegisterEndpoints(c, router)
	if err != nil {
		log.Fatalf("Error registering backoffice endpoints: %s", err)
	}

	cartStore, cartCleanup, err := mystore.New[cart.Cart](c)
	if err != nil {
		log.Fatalf("Error creating cart store: %s", err)
	}
	defer cartCleanup()

	sequenceStore, sequenceCleanup, err := mystore.New[mysequence.Sequence](c)
	if err != nil {
		log.Fatalf("Error creating sequence store: %s", err)
	}
	defer sequenceCleanup()

	cartService := cart.NewWebService(cartStore, mysequence.New(sequenceStore), paymentsClient, catalogClient, invoker, replicator, publisher, nower)
	err = cartService.RegisterEndpoints(c, router)
	if err != nil {
		log.Fatalf("Error registering cart endpoints: %s", err)
	}

	startWebServerBlocking(router)
}

func envOrDefault(name string, fallbackValue string) string {
	value := os.Getenv(name)
	if value == "" {
		return fallbackValue
	}

	return value
}

func startWebServerBlocking(router *mux.Router) {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting webserver on port %s (try http://localhost:%s)", port, port)
	err := http.ListenAndServe(fmt.Sprintf(":%s", port), router)
	if err != nil {
		log.Fatalf("Error starting webserver on port %s: %s", port, err)
	}
}
