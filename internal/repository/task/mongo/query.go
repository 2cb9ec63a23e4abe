package mongo

import (
	"taskflow/internal/models/task"

	"go.mongodb.org/mongo-driver/bson"
)

// buildFilter повторяет task.Filter.Matches на стороне MongoDB.
// Документы без поля status считаются Incomplete.
func buildFilter(filter task.Filter) bson.M {
	conds := bson.A{}

	if filter.OwnerID != nil {
		conds = append(conds, bson.M{"userId": *filter.OwnerID})
	}

	if filter.Status != nil {
		if *filter.Status == task.StatusComplete {
			conds = append(conds, bson.M{"status": string(task.LegacyComplete)})
		} else {
			conds = append(conds, bson.M{"status": bson.M{"$ne": string(task.LegacyComplete)}})
		}
	}

	if filter.Favorite != nil {
		if *filter.Favorite {
			conds = append(conds, bson.M{"favorite": true})
		} else {
			conds = append(conds, bson.M{"favorite": bson.M{"$ne": true}})
		}
	}

	if filter.Important != nil {
		if *filter.Important {
			conds = append(conds, bson.M{"$or": bson.A{
				bson.M{"important": true},
				bson.M{"status": string(task.LegacyImportant)},
			}})
		} else {
			conds = append(conds,
				bson.M{"important": bson.M{"$ne": true}},
				bson.M{"status": bson.M{"$ne": string(task.LegacyImportant)}},
			)
		}
	}

	if filter.LegacyOnly {
		conds = append(conds, bson.M{"status": string(task.LegacyImportant)})
	}

	if len(conds) == 0 {
		return bson.M{}
	}
	return bson.M{"$and": conds}
}

func buildSet(patch task.Patch) bson.M {
	set := bson.M{}

	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.OwnerID != nil {
		set["userId"] = *patch.OwnerID
	}
	if patch.Status != nil {
		set["status"] = string(*patch.Status)
	}
	if patch.Completed != nil {
		set["completed"] = *patch.Completed
	}
	if patch.Important != nil {
		set["important"] = *patch.Important
	}
	if patch.Favorite != nil {
		set["favorite"] = *patch.Favorite
	}
	return set
}
