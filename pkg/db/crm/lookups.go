package crm

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrNotFound is returned when a referenced CRM entity does not exist
// (anymore). Callers treat this as a cancellation signal, not a fault.
var ErrNotFound = errors.New("crm entity not found")

func (dbService *CRMDBService) GetPatientByID(instanceID string, id string) (*Patient, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	var patient Patient
	err := dbService.collectionPatients(instanceID).FindOne(ctx, bson.M{"_id": id}).Decode(&patient)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &patient, nil
}

func (dbService *CRMDBService) GetDealByID(instanceID string, id string) (*Deal, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	var deal Deal
	err := dbService.collectionDeals(instanceID).FindOne(ctx, bson.M{"_id": id}).Decode(&deal)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &deal, nil
}

func (dbService *CRMDBService) GetStageByID(instanceID string, id string) (*Stage, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	var stage Stage
	err := dbService.collectionStages(instanceID).FindOne(ctx, bson.M{"_id": id}).Decode(&stage)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &stage, nil
}
